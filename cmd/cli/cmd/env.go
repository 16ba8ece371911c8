package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/safetravel/groupwatch/pkg/client"
	"github.com/safetravel/groupwatch/pkg/config"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage SafeTravel environments",
	Long:  `Manage the SafeTravel backend deployments groupwatch can talk to`,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured environments",
	RunE:  listEnvironments,
}

var envAddCmd = &cobra.Command{
	Use:   "add [name] [url]",
	Short: "Add a new environment",
	Args:  cobra.MaximumNArgs(2),
	RunE:  addEnvironment,
}

var envRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove an environment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  removeEnvironment,
}

var envUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Select the environment used by default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  useEnvironment,
}

func init() {
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envAddCmd)
	envCmd.AddCommand(envRemoveCmd)
	envCmd.AddCommand(envUseCmd)
}

func listEnvironments(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEnvironments()
	if err != nil {
		return fmt.Errorf("failed to load environments: %w", err)
	}

	if len(cfg.Environments) == 0 {
		fmt.Println("No environments configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tURL\tSELECTED")
	_, _ = fmt.Fprintln(w, "----\t---\t--------")

	for _, env := range cfg.Environments {
		selected := ""
		if env.Name == cfg.Selected {
			selected = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", env.Name, env.URL, selected)
	}

	return w.Flush()
}

func addEnvironment(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEnvironments()
	if err != nil {
		return fmt.Errorf("failed to load environments: %w", err)
	}

	var env config.Environment
	if len(args) > 0 {
		env.Name = args[0]
	} else {
		namePrompt := &survey.Input{Message: "Environment name:"}
		if err := survey.AskOne(namePrompt, &env.Name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	if len(args) > 1 {
		env.URL = args[1]
	} else {
		urlPrompt := &survey.Input{
			Message: "SafeTravel API URL:",
			Default: "http://127.0.0.1:5000/api",
		}
		if err := survey.AskOne(urlPrompt, &env.URL, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	// Reject URLs the client could not use
	if _, err := client.NewClient(client.Config{BaseURL: env.URL}); err != nil {
		return err
	}

	if err := cfg.Add(env); err != nil {
		return err
	}

	if err := config.SaveEnvironments(cfg); err != nil {
		return fmt.Errorf("failed to save environments: %w", err)
	}

	fmt.Printf("Environment %s added successfully\n", env.Name)
	return nil
}

func removeEnvironment(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEnvironments()
	if err != nil {
		return fmt.Errorf("failed to load environments: %w", err)
	}

	if len(cfg.Environments) == 0 {
		fmt.Println("No environments to remove")
		return nil
	}

	var selected string
	if len(args) > 0 {
		selected = args[0]
	} else {
		var err error
		if selected, err = pickEnvironment(cfg, "Select environment to remove:"); err != nil {
			return err
		}

		var confirm bool
		confirmPrompt := &survey.Confirm{
			Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
			Default: false,
		}
		if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Removal cancelled")
			return nil
		}
	}

	if !cfg.Remove(selected) {
		return fmt.Errorf("environment %s not found", selected)
	}

	if err := config.SaveEnvironments(cfg); err != nil {
		return fmt.Errorf("failed to save environments: %w", err)
	}

	fmt.Printf("Environment %s removed successfully\n", selected)
	return nil
}

func useEnvironment(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEnvironments()
	if err != nil {
		return fmt.Errorf("failed to load environments: %w", err)
	}

	var selected string
	if len(args) > 0 {
		selected = args[0]
	} else if selected, err = pickEnvironment(cfg, "Select default environment:"); err != nil {
		return err
	}

	if _, ok := cfg.Find(selected); !ok {
		return fmt.Errorf("environment %s not found", selected)
	}
	cfg.Selected = selected

	if err := config.SaveEnvironments(cfg); err != nil {
		return fmt.Errorf("failed to save environments: %w", err)
	}

	fmt.Printf("Using environment %s\n", selected)
	return nil
}

func pickEnvironment(cfg *config.Config, message string) (string, error) {
	names := make([]string, len(cfg.Environments))
	for i, env := range cfg.Environments {
		names[i] = env.Name
	}

	var selected string
	prompt := &survey.Select{
		Message: message,
		Options: names,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return selected, nil
}
