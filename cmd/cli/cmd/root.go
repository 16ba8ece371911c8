package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safetravel/groupwatch/pkg/config"
	"github.com/safetravel/groupwatch/pkg/logger"
)

var (
	cfgFile         string
	envName         string
	envURL          string
	credentialsFile string
	logLevel        string
	noColor         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "groupwatch",
	Short: "SafeTravel group monitoring CLI",
	Long: `groupwatch runs the SafeTravel group location monitoring loop against a
SafeTravel backend: invite members, drift one of them away from the group and
watch the safety score and separation alert react.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.groupwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment name to use")
	rootCmd.PersistentFlags().StringVar(&envURL, "url", "", "SafeTravel API URL (overrides environment)")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", "", "credentials file (default is $HOME/.groupwatch/credentials.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Join("$HOME", config.DirName))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// GROUPWATCH_MONITOR_TICK_INTERVAL overrides monitor.tick_interval
	viper.SetEnvPrefix("GROUPWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debugf("Using config file %s", viper.ConfigFileUsed())
	}
}
