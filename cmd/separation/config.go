package separation

import (
	"fmt"
	"strings"
	"time"

	"github.com/safetravel/groupwatch/pkg/models"
	"github.com/safetravel/groupwatch/pkg/monitor"
)

// Config holds the configuration for the group separation simulation
type Config struct {
	Run      monitor.SimulationConfig
	Invite   []string
	Duration time.Duration

	LocalUser      models.Member
	Reference      models.Position
	InviteOffset   monitor.Drift
	RequestTimeout time.Duration
	Policy         monitor.EvaluationPolicy
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := &Config{
		Reference:      models.Position{Lat: 19.0760, Lng: 72.8777},
		LocalUser:      models.Member{Username: "Sahil006", Name: "You"},
		InviteOffset:   monitor.Drift{DLat: 0.001, DLng: -0.001},
		RequestTimeout: monitor.DefaultRequestTimeout,
	}

	var err error

	// Run parameters
	config.Run.StrayUsername = strings.TrimSpace(stringParam(params, "stray_username"))
	if config.Run.StrayUsername == "" {
		return nil, fmt.Errorf("stray_username is required")
	}

	if config.Run.TickInterval, err = durationParam(params, "tick_interval", 8*time.Second); err != nil {
		return nil, err
	}
	if config.Run.TickInterval <= 0 {
		return nil, fmt.Errorf("tick_interval must be positive")
	}

	if config.Run.Drift.DLat, err = floatParam(params, "drift_lat", 0.0015); err != nil {
		return nil, err
	}
	if config.Run.Drift.DLng, err = floatParam(params, "drift_lng", 0.0015); err != nil {
		return nil, err
	}
	if config.Run.SeparationThreshold, err = floatParam(params, "threshold", 0.003); err != nil {
		return nil, err
	}
	if config.Run.SeparationThreshold < 0 {
		return nil, fmt.Errorf("threshold must not be negative")
	}

	if config.Duration, err = durationParam(params, "duration", 0); err != nil {
		return nil, err
	}
	if config.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative")
	}

	for _, u := range strings.Split(stringParam(params, "invite"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			config.Invite = append(config.Invite, u)
		}
	}

	if config.Policy, err = monitor.ParsePolicy(stringParam(params, "evaluation_policy")); err != nil {
		return nil, fmt.Errorf("evaluation_policy: %w", err)
	}

	// Session parameters, normally filled from the monitor settings
	if v := stringParam(params, "local_username"); v != "" {
		config.LocalUser.Username = v
	}
	if v := stringParam(params, "local_name"); v != "" {
		config.LocalUser.Name = v
	}
	if config.Reference.Lat, err = floatParam(params, "reference_lat", config.Reference.Lat); err != nil {
		return nil, err
	}
	if config.Reference.Lng, err = floatParam(params, "reference_lng", config.Reference.Lng); err != nil {
		return nil, err
	}
	if config.InviteOffset.DLat, err = floatParam(params, "invite_offset_lat", config.InviteOffset.DLat); err != nil {
		return nil, err
	}
	if config.InviteOffset.DLng, err = floatParam(params, "invite_offset_lng", config.InviteOffset.DLng); err != nil {
		return nil, err
	}
	if config.RequestTimeout, err = durationParam(params, "request_timeout", config.RequestTimeout); err != nil {
		return nil, err
	}

	return config, nil
}

func stringParam(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func floatParam(params map[string]interface{}, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

// durationParam accepts a time.Duration, a duration string, or a number of seconds
func durationParam(params map[string]interface{}, key string, def time.Duration) (time.Duration, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		d, err := time.ParseDuration(fmt.Sprintf("%v", val))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
}
