package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safetravel/groupwatch/pkg/auth"
	"github.com/safetravel/groupwatch/pkg/config"
	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/simulation"
	"github.com/safetravel/groupwatch/pkg/utils"

	// Import simulations to register them
	_ "github.com/safetravel/groupwatch/cmd/probe"
	_ "github.com/safetravel/groupwatch/cmd/separation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long:  `Run a simulation interactively, or unattended with GROUPWATCH_SKIP_PROMPTS=true`,
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().StringP("simulation", "s", "", "simulation name to run")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	env, err := selectEnvironment()
	if err != nil {
		return fmt.Errorf("failed to select environment: %w", err)
	}

	store, err := credentialStore()
	if err != nil {
		return err
	}
	if _, err := store.Token(cmd.Context()); errors.Is(err, auth.ErrNoCredentials) {
		logger.Warn("Not signed in; backend calls will be rejected until you run `groupwatch login`")
	}

	api, err := newClient(env, store)
	if err != nil {
		return fmt.Errorf("failed to create SafeTravel client: %w", err)
	}

	simName, err := selectSimulation(cmd)
	if err != nil {
		return fmt.Errorf("failed to select simulation: %w", err)
	}

	sim, err := simulation.DefaultRegistry.Get(simName)
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}
	simConfig, err := simulation.DefaultRegistry.Config(simName)
	if err != nil {
		return err
	}

	settings, err := config.LoadMonitorSettings(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid monitor settings: %w", err)
	}

	params, err := resolveParameters(simConfig.Parameters, settings)
	if err != nil {
		return fmt.Errorf("failed to get parameters: %w", err)
	}

	if err := sim.Configure(params); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		logger.Warn("Received interrupt signal, stopping simulation...")
		if err := sim.Stop(); err != nil {
			logger.Errorf("Failed to stop simulation: %v", err)
		}
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sim.Name()))
	if err := sim.Run(ctx, api); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("Simulation finished")
	return nil
}

// resolveParameters uses the monitor settings as prompt defaults, prompts,
// then adds the settings the manifest does not ask for
func resolveParameters(params []simulation.Parameter, settings *config.MonitorSettings) (map[string]interface{}, error) {
	fromSettings := settings.Params()

	prompted := make([]simulation.Parameter, len(params))
	for i, p := range params {
		if v, ok := fromSettings[p.Name]; ok {
			p.Default = v
		}
		prompted[i] = p
	}

	values, err := utils.PromptForParameters(prompted)
	if err != nil {
		return nil, err
	}

	for k, v := range fromSettings {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	return values, nil
}

func selectSimulation(cmd *cobra.Command) (string, error) {
	simName, _ := cmd.Flags().GetString("simulation")
	if simName != "" {
		return simName, nil
	}

	configs := simulation.DefaultRegistry.List()
	if len(configs) == 0 {
		return "", fmt.Errorf("no simulations found")
	}
	if len(configs) == 1 {
		return configs[0].Name, nil
	}
	if os.Getenv(utils.SkipPromptsEnv) == "true" {
		return "", fmt.Errorf("%d simulations registered, pick one with --simulation", len(configs))
	}

	options := make([]string, len(configs))
	descriptions := make(map[string]string)
	for i, c := range configs {
		options[i] = c.Name
		descriptions[c.Name] = c.Description
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select simulation:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
