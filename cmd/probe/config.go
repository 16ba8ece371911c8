package probe

import (
	"fmt"
	"strings"
	"time"

	"github.com/safetravel/groupwatch/pkg/models"
)

// Config holds the configuration for the backend probe
type Config struct {
	Members        []string
	UpdateInterval time.Duration
	Duration       time.Duration
	Radius         float64

	LocalUsername  string
	Reference      models.Position
	RequestTimeout time.Duration
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := &Config{
		UpdateInterval: 5 * time.Second,
		Duration:       30 * time.Second,
		Radius:         0.0005,
		LocalUsername:  "Sahil006",
		Reference:      models.Position{Lat: 19.0760, Lng: 72.8777},
		RequestTimeout: 5 * time.Second,
	}

	// Parse members
	if v, ok := params["members"]; ok {
		for _, u := range strings.Split(fmt.Sprintf("%v", v), ",") {
			if u = strings.TrimSpace(u); u != "" {
				config.Members = append(config.Members, u)
			}
		}
	}
	if len(config.Members) == 0 {
		return nil, fmt.Errorf("members must name at least one username")
	}

	// Parse update_interval and duration
	for key, dst := range map[string]*time.Duration{
		"update_interval": &config.UpdateInterval,
		"duration":        &config.Duration,
		"request_timeout": &config.RequestTimeout,
	} {
		v, ok := params[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case time.Duration:
			*dst = val
		case string:
			d, err := time.ParseDuration(val)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		default:
			return nil, fmt.Errorf("%s must be a duration", key)
		}
	}
	if config.UpdateInterval <= 0 {
		return nil, fmt.Errorf("update_interval must be positive")
	}
	if config.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}

	// Parse radius and reference point
	for key, dst := range map[string]*float64{
		"radius":        &config.Radius,
		"reference_lat": &config.Reference.Lat,
		"reference_lng": &config.Reference.Lng,
	} {
		v, ok := params[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			*dst = val
		case int:
			*dst = float64(val)
		default:
			return nil, fmt.Errorf("%s must be a number", key)
		}
	}
	if config.Radius < 0 {
		return nil, fmt.Errorf("radius must not be negative")
	}

	if v, ok := params["local_username"]; ok {
		config.LocalUsername = strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	if config.LocalUsername == "" {
		return nil, fmt.Errorf("local_username is required")
	}

	return config, nil
}
