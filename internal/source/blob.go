package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"fabric-bridge/internal/adf"
)

// BlobLoader reads ARM-template exports from an Azure Blob container,
// where ADF export pipelines commonly publish them.
type BlobLoader struct {
	client    *azblob.Client
	container string
	prefix    string
	logger    *slog.Logger
}

// NewBlobLoader creates a loader using shared-key credentials.
func NewBlobLoader(accountName, accountKey, container, prefix string, logger *slog.Logger) (*BlobLoader, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("storage account name and key are required")
	}
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobLoader{client: client, container: container, prefix: prefix, logger: logger}, nil
}

// Load lists *.json blobs under the prefix, downloads each, and merges the
// parsed exports.
func (l *BlobLoader) Load(ctx context.Context) (*adf.FactoryExport, error) {
	merged := &adf.FactoryExport{}

	pager := l.client.NewListBlobsFlatPager(l.container, &azblob.ListBlobsFlatOptions{Prefix: &l.prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs in %s: %w", l.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil || !strings.HasSuffix(strings.ToLower(*item.Name), ".json") {
				continue
			}
			export, err := l.loadBlob(ctx, *item.Name)
			if err != nil {
				return nil, err
			}
			mergeExport(merged, export)
		}
	}
	return merged, nil
}

func (l *BlobLoader) loadBlob(ctx context.Context, name string) (*adf.FactoryExport, error) {
	resp, err := l.client.DownloadStream(ctx, l.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", l.container, name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", l.container, name, err)
	}
	export, err := adf.ParseARMTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", l.container, name, err)
	}

	l.logger.Debug("loaded export blob", "blob", name,
		"pipelines", len(export.Pipelines), "datasets", len(export.Datasets))
	return export, nil
}
