package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/viper"

	"github.com/safetravel/groupwatch/pkg/auth"
	"github.com/safetravel/groupwatch/pkg/client"
	"github.com/safetravel/groupwatch/pkg/config"
	"github.com/safetravel/groupwatch/pkg/logger"
)

const customURLOption = "Custom URL"

// selectEnvironment resolves the backend from, in order: --url,
// GROUPWATCH_URL, --env, the selected environment, an interactive prompt
func selectEnvironment() (*config.Environment, error) {
	if envURL != "" {
		return &config.Environment{Name: "Custom", URL: envURL}, nil
	}

	if u := os.Getenv("GROUPWATCH_URL"); u != "" {
		return &config.Environment{Name: "Environment", URL: u}, nil
	}

	envConfig, err := config.LoadEnvironments()
	if err != nil {
		return nil, err
	}

	if envName != "" {
		env, ok := envConfig.Find(envName)
		if !ok {
			return nil, fmt.Errorf("environment %s not found", envName)
		}
		return env, nil
	}

	if envConfig.Selected != "" {
		if env, ok := envConfig.Find(envConfig.Selected); ok {
			return env, nil
		}
	}

	options := make([]string, 0, len(envConfig.Environments)+1)
	for _, env := range envConfig.Environments {
		options = append(options, env.Name)
	}
	options = append(options, customURLOption)

	var selected string
	prompt := &survey.Select{
		Message: "Select environment:",
		Options: options,
		Description: func(value string, index int) string {
			if env, ok := envConfig.Find(value); ok {
				return env.URL
			}
			return ""
		},
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil, err
	}

	if selected == customURLOption {
		var customURL string
		urlPrompt := &survey.Input{
			Message: "Enter SafeTravel API URL:",
			Default: "http://127.0.0.1:5000/api",
		}
		if err := survey.AskOne(urlPrompt, &customURL, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
		return &config.Environment{Name: "Custom", URL: customURL}, nil
	}

	env, _ := envConfig.Find(selected)
	return env, nil
}

// credentialStore returns the token store selected by --credentials
func credentialStore() (*auth.CredentialStore, error) {
	if credentialsFile != "" {
		return auth.NewCredentialStore(credentialsFile), nil
	}
	return auth.DefaultCredentialStore()
}

// newClient creates a client for env that reads its token from creds
func newClient(env *config.Environment, creds client.CredentialProvider) (*client.SafeTravel, error) {
	settings, err := config.LoadMonitorSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	c, err := client.NewClient(client.Config{
		BaseURL:     env.URL,
		Timeout:     settings.RequestTimeout,
		Credentials: creds,
	})
	if err != nil {
		return nil, err
	}

	logger.Networkf("Using %s (%s)", env.Name, c.BaseURL())
	return c, nil
}
