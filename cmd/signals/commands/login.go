package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Kite Connect login",
	Long: `Without flags, prints the Kite login URL.
With --request-token, exchanges the token for an access token and shares
the session through Redis so running API servers and workers pick it up.

Example:
  go run ./cmd/signals login
  go run ./cmd/signals login --request-token abc123`,
	RunE: runLogin,
}

var requestToken string

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&requestToken, "request-token", "", "request_token from the login redirect")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if requestToken == "" {
		loginURL, err := a.kite.LoginURL()
		if err != nil {
			return fmt.Errorf("login url: %w", err)
		}
		PrintInfo("Open this URL in a browser to authenticate with Zerodha:")
		fmt.Println(loginURL)
		return nil
	}

	data, err := a.kite.GenerateSession(ctx, requestToken)
	if err != nil {
		return fmt.Errorf("generate session: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Authenticated as %s", data.UserID))

	if !a.shared.Enabled() {
		PrintWarning("Redis is disabled: the session lives only in this process")
		return nil
	}
	if err := a.session.Persist(ctx, a.shared); err != nil {
		return fmt.Errorf("share session: %w", err)
	}
	PrintSuccess("Session shared through Redis")
	return nil
}
