package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/export"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		sessionName string
		outDir      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export session state as CSV reports and a YAML mapping file",
		Long:  "Writes the component report, the per-pipeline report, and the mapping state of a session to the output directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, closeApp, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp()
			ctx := cmd.Context()

			session, err := resolveSession(ctx, application, sessionName, false)
			if err != nil {
				return err
			}
			refs, err := application.Sessions.ListReferences(ctx, session.ID)
			if err != nil {
				return err
			}
			mappingList, err := application.Sessions.ListMappings(ctx, session.ID)
			if err != nil {
				return err
			}
			plan, err := application.Sessions.PlanSkips(ctx, session.ID)
			if err != nil {
				return err
			}
			summary, err := application.Sessions.Summary(ctx, session.ID)
			if err != nil {
				return err
			}

			mappings := make(map[string]domain.ConnectionMapping, len(mappingList))
			for _, m := range mappingList {
				mappings[m.ReferenceID] = m
			}
			connIndex := map[string]domain.FabricConnection{}
			if conns, err := application.Fabric.ListConnections(ctx); err == nil {
				for _, c := range conns {
					connIndex[c.ID] = c
				}
			}

			if err := os.MkdirAll(outDir, 0o750); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			now := time.Now()
			componentPath := filepath.Join(outDir, export.Filename("components", now))
			pipelinePath := filepath.Join(outDir, export.Filename("pipelines", now))
			statePath := filepath.Join(outDir, session.Name+"-state.yaml")

			if err := writeFile(componentPath, func(f *os.File) error {
				return export.WriteComponentCSV(f, refs, mappings, plan, connIndex)
			}); err != nil {
				return err
			}
			if err := writeFile(pipelinePath, func(f *os.File) error {
				return export.WritePipelineCSV(f, summary.Pipelines)
			}); err != nil {
				return err
			}
			if err := writeFile(statePath, func(f *os.File) error {
				return export.WriteSessionYAML(f, session, mappingList)
			}); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"components": componentPath,
					"pipelines":  pipelinePath,
					"state":      statePath,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported session %q to %s\n", session.Name, outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionName, "session", "", "Migration session name")
	cmd.Flags().StringVar(&outDir, "out", "./fabric-bridge-export", "Output directory")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
