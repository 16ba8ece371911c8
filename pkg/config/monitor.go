package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys for the monitoring loop
const (
	KeyTickInterval     = "monitor.tick_interval"
	KeyDriftLat         = "monitor.drift.lat"
	KeyDriftLng         = "monitor.drift.lng"
	KeyThreshold        = "monitor.threshold"
	KeyReferenceLat     = "monitor.reference.lat"
	KeyReferenceLng     = "monitor.reference.lng"
	KeyLocalUsername    = "monitor.local_user.username"
	KeyLocalName        = "monitor.local_user.name"
	KeyInviteOffsetLat  = "monitor.invite_offset.lat"
	KeyInviteOffsetLng  = "monitor.invite_offset.lng"
	KeyRequestTimeout   = "monitor.request_timeout"
	KeyEvaluationPolicy = "monitor.evaluation_policy"
)

// MonitorSettings are the operator-tunable knobs of the monitoring loop
type MonitorSettings struct {
	TickInterval     time.Duration
	DriftLat         float64
	DriftLng         float64
	Threshold        float64
	ReferenceLat     float64
	ReferenceLng     float64
	LocalUsername    string
	LocalName        string
	InviteOffsetLat  float64
	InviteOffsetLng  float64
	RequestTimeout   time.Duration
	EvaluationPolicy string
}

// SetMonitorDefaults registers the defaults on v
func SetMonitorDefaults(v *viper.Viper) {
	v.SetDefault(KeyTickInterval, 8*time.Second)
	v.SetDefault(KeyDriftLat, 0.0015)
	v.SetDefault(KeyDriftLng, 0.0015)
	v.SetDefault(KeyThreshold, 0.003)
	v.SetDefault(KeyReferenceLat, 19.0760)
	v.SetDefault(KeyReferenceLng, 72.8777)
	v.SetDefault(KeyLocalUsername, "Sahil006")
	v.SetDefault(KeyLocalName, "You")
	v.SetDefault(KeyInviteOffsetLat, 0.001)
	v.SetDefault(KeyInviteOffsetLng, -0.001)
	v.SetDefault(KeyRequestTimeout, 5*time.Second)
	v.SetDefault(KeyEvaluationPolicy, "overlap")
}

// LoadMonitorSettings reads and validates the monitor settings from v
func LoadMonitorSettings(v *viper.Viper) (*MonitorSettings, error) {
	SetMonitorDefaults(v)

	s := &MonitorSettings{
		TickInterval:     v.GetDuration(KeyTickInterval),
		DriftLat:         v.GetFloat64(KeyDriftLat),
		DriftLng:         v.GetFloat64(KeyDriftLng),
		Threshold:        v.GetFloat64(KeyThreshold),
		ReferenceLat:     v.GetFloat64(KeyReferenceLat),
		ReferenceLng:     v.GetFloat64(KeyReferenceLng),
		LocalUsername:    v.GetString(KeyLocalUsername),
		LocalName:        v.GetString(KeyLocalName),
		InviteOffsetLat:  v.GetFloat64(KeyInviteOffsetLat),
		InviteOffsetLng:  v.GetFloat64(KeyInviteOffsetLng),
		RequestTimeout:   v.GetDuration(KeyRequestTimeout),
		EvaluationPolicy: strings.ToLower(v.GetString(KeyEvaluationPolicy)),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for values the loop cannot run with
func (s *MonitorSettings) Validate() error {
	if s.TickInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyTickInterval, s.TickInterval)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyRequestTimeout, s.RequestTimeout)
	}
	if s.LocalUsername == "" {
		return fmt.Errorf("%s is required", KeyLocalUsername)
	}
	switch s.EvaluationPolicy {
	case "overlap", "serialize":
	default:
		return fmt.Errorf("%s must be overlap or serialize, got %q", KeyEvaluationPolicy, s.EvaluationPolicy)
	}
	return nil
}

// Params exposes the settings under the parameter names simulations use, so
// a config file can preset or replace interactive answers
func (s *MonitorSettings) Params() map[string]interface{} {
	return map[string]interface{}{
		"tick_interval":     s.TickInterval,
		"drift_lat":         s.DriftLat,
		"drift_lng":         s.DriftLng,
		"threshold":         s.Threshold,
		"reference_lat":     s.ReferenceLat,
		"reference_lng":     s.ReferenceLng,
		"local_username":    s.LocalUsername,
		"local_name":        s.LocalName,
		"invite_offset_lat": s.InviteOffsetLat,
		"invite_offset_lng": s.InviteOffsetLng,
		"request_timeout":   s.RequestTimeout,
		"evaluation_policy": s.EvaluationPolicy,
	}
}
