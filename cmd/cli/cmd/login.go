package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safetravel/groupwatch/pkg/auth"
	"github.com/safetravel/groupwatch/pkg/logger"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the bearer token",
	Long: `Sign in against the selected environment and store the issued token.
With --token the token is stored as is, e.g. one printed by "groupd user add".
GROUPWATCH_USERNAME and GROUPWATCH_PASSWORD skip the interactive prompt.`,
	RunE: login,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored bearer token",
	RunE:  logout,
}

func init() {
	loginCmd.Flags().String("token", "", "store this token instead of signing in")
}

func login(cmd *cobra.Command, _ []string) error {
	store, err := credentialStore()
	if err != nil {
		return err
	}

	if token, _ := cmd.Flags().GetString("token"); token != "" {
		if err := store.Set(token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		logger.Successf("Token stored in %s", store.Path())
		return nil
	}

	env, err := selectEnvironment()
	if err != nil {
		return fmt.Errorf("failed to select environment: %w", err)
	}

	api, err := newClient(env, nil)
	if err != nil {
		return fmt.Errorf("failed to create SafeTravel client: %w", err)
	}

	return auth.AuthenticateUser(cmd.Context(), api, store)
}

func logout(_ *cobra.Command, _ []string) error {
	store, err := credentialStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	logger.Success("Signed out")
	return nil
}
