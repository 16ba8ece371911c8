package utils

import (
	"testing"
	"time"

	"github.com/safetravel/groupwatch/pkg/simulation"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		param   simulation.Parameter
		in      string
		want    interface{}
		wantErr bool
	}{
		{"duration", simulation.Parameter{Type: simulation.TypeDuration}, "8s", 8 * time.Second, false},
		{"float", simulation.Parameter{Type: simulation.TypeFloat}, "0.0015", 0.0015, false},
		{"float below min", simulation.Parameter{Type: simulation.TypeFloat, Min: 0.0}, "-1", nil, true},
		{"integer above max", simulation.Parameter{Type: simulation.TypeInteger, Max: 10}, "11", nil, true},
		{"integer", simulation.Parameter{Type: simulation.TypeInteger}, "3", 3, false},
		{"option", simulation.Parameter{Type: simulation.TypeString, Options: []string{"overlap", "serialize"}}, "serialize", "serialize", false},
		{"bad option", simulation.Parameter{Type: simulation.TypeString, Options: []string{"overlap"}}, "both", nil, true},
		{"boolean", simulation.Parameter{Type: simulation.TypeBoolean}, "true", true, false},
		{"garbage duration", simulation.Parameter{Type: simulation.TypeDuration}, "soon", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.in, tt.param)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseValue(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
			}
		})
	}
}

func TestResolveNonInteractive(t *testing.T) {
	stray := simulation.Parameter{Name: "stray_username", Type: simulation.TypeString, Required: true}
	interval := simulation.Parameter{Name: "tick_interval", Type: simulation.TypeDuration, Default: "8s"}

	if _, ok, err := ResolveNonInteractive(stray); ok || err != nil {
		t.Errorf("no env and no default: ok=%v err=%v", ok, err)
	}

	t.Setenv("GROUPWATCH_STRAY_USERNAME", "Amit")
	v, ok, err := ResolveNonInteractive(stray)
	if err != nil || !ok || v != "Amit" {
		t.Errorf("from env: %v, %v, %v", v, ok, err)
	}

	v, ok, err = ResolveNonInteractive(interval)
	if err != nil || !ok || v != "8s" {
		t.Errorf("default: %v, %v, %v", v, ok, err)
	}

	t.Setenv("GROUPWATCH_TICK_INTERVAL", "forever")
	if _, _, err := ResolveNonInteractive(interval); err == nil {
		t.Error("bad env value accepted")
	}
}

func TestPromptForParametersSkipped(t *testing.T) {
	t.Setenv(SkipPromptsEnv, "true")
	t.Setenv("GROUPWATCH_STRAY_USERNAME", "Amit")

	params := []simulation.Parameter{
		{Name: "stray_username", Type: simulation.TypeString, Required: true},
		{Name: "threshold", Type: simulation.TypeFloat, Default: 0.003},
		{Name: "verbose", Type: simulation.TypeBoolean},
	}
	got, err := PromptForParameters(params)
	if err != nil {
		t.Fatalf("PromptForParameters: %v", err)
	}
	if got["stray_username"] != "Amit" || got["threshold"] != 0.003 || got["verbose"] != false {
		t.Errorf("resolved %v", got)
	}

	params = append(params, simulation.Parameter{Name: "organization", Type: simulation.TypeString, Required: true})
	if _, err := PromptForParameters(params); err == nil {
		t.Error("missing required parameter accepted")
	}
}
