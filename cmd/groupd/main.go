// Command groupd serves the SafeTravel group endpoints backed by a local
// sqlite user directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/safetravel/groupwatch/pkg/groupsvc"
	"github.com/safetravel/groupwatch/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "groupd",
	Short:        "Reference backend for the group monitoring endpoints",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /api/group, /health and /metrics",
	RunE:  serve,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage directory users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user and print its bearer token",
	Args:  cobra.ExactArgs(1),
	RunE:  addUser,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $GROUPD_CONFIG)")

	userAddCmd.Flags().String("name", "", "display name (defaults to the username)")
	userAddCmd.Flags().String("email", "", "address separation alerts are sent to")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
}

func loadConfig() (*groupsvc.Config, error) {
	cfg, err := groupsvc.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithPrefix("groupd")

	store, err := groupsvc.OpenStore(cfg.DBPath, log.WithPrefix("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("Failed to close store: %v", err)
		}
	}()

	srv, err := groupsvc.NewServer(groupsvc.ServerOptions{
		Config:    cfg,
		Directory: store,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func addUser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := groupsvc.OpenStore(cfg.DBPath, logger.WithPrefix("store"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")

	user, token, err := store.CreateUser(cmd.Context(), name, args[0], email)
	if err != nil {
		return err
	}

	logger.Successf("Created %s (%s)", user.Username, user.ID)
	fmt.Println(token)
	return nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
