package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fabric-bridge/internal/adf"
	"fabric-bridge/internal/source"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		sessionName   string
		dir           string
		blobAccount   string
		blobKey       string
		blobContainer string
		blobPrefix    string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a Data Factory export into a migration session",
		Long:  "Parses the ARM-template export, extracts every linked-service reference, and upserts them into the named session. The session is created if it does not exist.",
		Example: `  # Scan a local export directory
  fabric-bridge scan --session contoso --dir ./adf-export

  # Scan an export stored in an Azure Blob container
  fabric-bridge scan --session contoso --blob-account myacct --blob-key $KEY --blob-container exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, closeApp, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp()
			ctx := cmd.Context()

			var export *adf.FactoryExport
			switch {
			case dir != "":
				export, err = source.NewDirLoader(dir, nil).Load(ctx)
			case blobAccount != "":
				loader, lerr := source.NewBlobLoader(blobAccount, blobKey, blobContainer, blobPrefix, nil)
				if lerr != nil {
					return lerr
				}
				export, err = loader.Load(ctx)
			default:
				return fmt.Errorf("either --dir or --blob-account must be provided")
			}
			if err != nil {
				return fmt.Errorf("load export: %w", err)
			}

			session, err := resolveSession(ctx, application, sessionName, true)
			if err != nil {
				return err
			}

			result, err := application.Sessions.ScanExport(ctx, cliPrincipal(), session.ID, export)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"session":         session.Name,
					"pipelines":       result.Pipelines,
					"references":      result.References,
					"orphaned_marked": result.OrphanedMarked,
					"per_pipeline":    result.PipelineResults,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"Scanned %d pipelines into session %q: %d references (%d marked orphaned)\n",
				result.Pipelines, session.Name, result.References, result.OrphanedMarked)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionName, "session", "", "Migration session name")
	cmd.Flags().StringVar(&dir, "dir", "", "Local export directory containing ARM-template JSON files")
	cmd.Flags().StringVar(&blobAccount, "blob-account", "", "Azure storage account holding the export")
	cmd.Flags().StringVar(&blobKey, "blob-key", "", "Azure storage account key")
	cmd.Flags().StringVar(&blobContainer, "blob-container", "", "Azure blob container holding the export")
	cmd.Flags().StringVar(&blobPrefix, "blob-prefix", "", "Blob name prefix to scan under")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
