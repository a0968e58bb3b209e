// Package cli implements the fabric-bridge command-line interface. The CLI
// works directly against the local session store and the Fabric metadata API,
// so scans and exports keep working when the HTTP server is not running.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions holds the resolved persistent flag values shared by all commands.
type rootOptions struct {
	SessionDB   string
	FabricURL   string
	FabricToken string
	Output      string
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var profile string

	rootCmd := &cobra.Command{
		Use:           "fabric-bridge",
		Short:         "Data Factory to Fabric migration assistant",
		Long:          "Command-line interface for scanning Data Factory exports, planning connector skips, and tracking connection mappings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional
				cfg = &UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{},
				}
			}

			p := cfg.ActiveProfile(profile)

			// Apply precedence: flag > env > profile > default
			if !cmd.Flags().Changed("db") {
				if v := os.Getenv("SESSION_DB_PATH"); v != "" {
					opts.SessionDB = v
				} else if p.SessionDB != "" {
					opts.SessionDB = p.SessionDB
				}
			}
			if !cmd.Flags().Changed("fabric-url") {
				if v := os.Getenv("FABRIC_API_BASE_URL"); v != "" {
					opts.FabricURL = v
				} else if p.FabricURL != "" {
					opts.FabricURL = p.FabricURL
				}
			}
			if !cmd.Flags().Changed("fabric-token") {
				if v := os.Getenv("FABRIC_TOKEN"); v != "" {
					opts.FabricToken = v
				} else if p.FabricToken != "" {
					opts.FabricToken = p.FabricToken
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("FABRIC_BRIDGE_OUTPUT"); v != "" {
					opts.Output = v
				} else if p.Output != "" {
					opts.Output = p.Output
				}
			}

			return validateOutputFormat(opts.Output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.SessionDB, "db", "fabric_bridge.sqlite", "Path to the SQLite session store")
	rootCmd.PersistentFlags().StringVar(&opts.FabricURL, "fabric-url", "", "Fabric metadata API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.FabricToken, "fabric-token", "", "Fabric API bearer token")
	rootCmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newPlanCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fabric-bridge version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
