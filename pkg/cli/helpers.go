package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"fabric-bridge/internal/app"
	"fabric-bridge/internal/config"
	internaldb "fabric-bridge/internal/db"
	"fabric-bridge/internal/domain"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes rows with aligned columns to stdout.
func printTable(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, col := range header {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// openApp opens the session store, runs migrations, and wires the application.
// The returned close function must be called when the command is done.
func openApp(opts *rootOptions) (*app.App, func(), error) {
	conn, err := internaldb.Open(opts.SessionDB)
	if err != nil {
		return nil, nil, err
	}
	if err := internaldb.RunMigrations(conn); err != nil {
		conn.Close() //nolint:errcheck
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := &config.Config{
		SessionDBPath:          opts.SessionDB,
		FabricAPIBaseURL:       opts.FabricURL,
		FabricToken:            opts.FabricToken,
		AutoApplyCrossPipeline: true,
	}

	application, err := app.New(app.Deps{Cfg: cfg, DB: conn, Logger: logger})
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, nil, err
	}
	return application, func() { _ = conn.Close() }, nil
}

// resolveSession finds a session by name, optionally creating it.
func resolveSession(ctx context.Context, application *app.App, name string, create bool) (*domain.MigrationSession, error) {
	session, err := application.Sessions.GetSessionByName(ctx, name)
	if err == nil {
		return session, nil
	}
	if !create {
		return nil, err
	}
	return application.Sessions.CreateSession(ctx, cliPrincipal(), domain.CreateSessionRequest{Name: name})
}

func cliPrincipal() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
