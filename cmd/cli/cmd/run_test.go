package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/safetravel/groupwatch/pkg/config"
	"github.com/safetravel/groupwatch/pkg/simulation"
	"github.com/safetravel/groupwatch/pkg/utils"
)

func separationParams(t *testing.T) []simulation.Parameter {
	t.Helper()
	cfg, err := simulation.DefaultRegistry.Config("Group Separation")
	if err != nil {
		t.Fatalf("separation simulation not registered: %v", err)
	}
	return cfg.Parameters
}

func TestResolveParametersUsesSettings(t *testing.T) {
	t.Setenv(utils.SkipPromptsEnv, "true")

	v := viper.New()
	v.Set(config.KeyTickInterval, "2s")
	v.Set(config.KeyLocalUsername, "Riya")
	settings, err := config.LoadMonitorSettings(v)
	if err != nil {
		t.Fatalf("LoadMonitorSettings: %v", err)
	}

	values, err := resolveParameters(separationParams(t), settings)
	if err != nil {
		t.Fatalf("resolveParameters: %v", err)
	}

	if got := values["tick_interval"]; got != 2*time.Second {
		t.Errorf("tick_interval = %v, want 2s from settings", got)
	}
	if got := values["local_username"]; got != "Riya" {
		t.Errorf("local_username = %v, want settings value merged in", got)
	}
	if got := values["stray_username"]; got != "Amit" {
		t.Errorf("stray_username = %v, want manifest default", got)
	}
}

func TestResolveParametersEnvBeatsSettings(t *testing.T) {
	t.Setenv(utils.SkipPromptsEnv, "true")
	t.Setenv("GROUPWATCH_STRAY_USERNAME", "Kabir")
	t.Setenv("GROUPWATCH_EVALUATION_POLICY", "serialize")

	settings, err := config.LoadMonitorSettings(viper.New())
	if err != nil {
		t.Fatalf("LoadMonitorSettings: %v", err)
	}

	values, err := resolveParameters(separationParams(t), settings)
	if err != nil {
		t.Fatalf("resolveParameters: %v", err)
	}

	if got := values["stray_username"]; got != "Kabir" {
		t.Errorf("stray_username = %v, want Kabir", got)
	}
	if got := values["evaluation_policy"]; got != "serialize" {
		t.Errorf("evaluation_policy = %v, want serialize", got)
	}
}
