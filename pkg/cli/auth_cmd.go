package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}

	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthLoginCmd())
	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	var (
		principal string
		secret    string
		expires   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a dev-mode JWT token for the HTTP API",
		Long:  "Generate an HS256 JWT token for development and testing against a server started with JWT_SECRET.",
		Example: `  # Generate a token for a local server
  fabric-bridge auth token --principal alice --secret $JWT_SECRET

  # Custom expiry
  fabric-bridge auth token --principal alice --secret $JWT_SECRET --expires 48h`,
		RunE: func(_ *cobra.Command, _ []string) error {
			now := time.Now()
			claims := jwt.MapClaims{
				"sub":  principal,
				"name": principal,
				"iat":  now.Unix(),
				"exp":  now.Add(expires).Unix(),
			}

			token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
			signed, err := token.SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			_, _ = fmt.Fprintln(os.Stdout, signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Principal name (JWT sub claim)")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret (HS256)")
	cmd.Flags().DurationVar(&expires, "expires", 24*time.Hour, "Token expiry duration")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var profileName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a Fabric API token to a config profile",
		Long:  "Prompts for a Fabric API bearer token without echoing it and stores it in ~/.fabric-bridge/config.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), "Fabric API token: ")

			var token string
			if term.IsTerminal(int(os.Stdin.Fd())) {
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = string(raw)
			} else {
				// Piped input, e.g. echo $TOKEN | fabric-bridge auth login
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &token); err != nil {
					return fmt.Errorf("read token: %w", err)
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("token is required")
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
			}
			name := profileName
			if name == "" {
				name = cfg.CurrentProfile
			}
			if name == "" {
				name = "default"
				cfg.CurrentProfile = name
			}
			p := cfg.Profiles[name]
			p.FabricToken = token
			cfg.Profiles[name] = p
			if err := SaveUserConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token saved to profile %q\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileName, "to-profile", "", "Profile to store the token in (default: current profile)")

	return cmd
}
