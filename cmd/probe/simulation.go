package probe

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/safetravel/groupwatch/pkg/client"
	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
	"github.com/safetravel/groupwatch/pkg/simulation"
)

//go:embed simulation.yaml
var manifest []byte

func init() {
	simulation.DefaultRegistry.MustRegister(manifest, NewBackendProbe)
}

// Stats counts what the probe saw
type Stats struct {
	Resolved int
	Checks   int
	Failures int
	Strays   int
}

// BackendProbe places the resolved members on a circle around the reference
// point and submits the snapshot on every interval
type BackendProbe struct {
	config   *Config
	members  []models.Member
	stats    Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewBackendProbe creates a new instance of the backend probe
func NewBackendProbe() simulation.Simulation {
	return &BackendProbe{
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *BackendProbe) Name() string {
	return "Backend Probe"
}

// Description returns the simulation description
func (s *BackendProbe) Description() string {
	return "Resolve group members and submit a stationary snapshot to check SafeTravel connectivity"
}

// Configure sets up the simulation with provided parameters
func (s *BackendProbe) Configure(params map[string]interface{}) error {
	config, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	s.config = config
	return nil
}

// Stats returns a copy of the counters
func (s *BackendProbe) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Run executes the simulation
func (s *BackendProbe) Run(ctx context.Context, api *client.SafeTravel) error {
	if s.config == nil {
		return fmt.Errorf("simulation is not configured")
	}
	log := logger.WithPrefix("probe")
	log.Infof("Probing %s with %d members", api.BaseURL(), len(s.config.Members))

	for _, username := range s.config.Members {
		member, err := s.resolve(ctx, api, username)
		if err != nil {
			log.Warnf("Member %s skipped: %s", username, client.Message(err))
			continue
		}
		logger.Successf("Member %s resolved: %s", member.Username, member.Label())
		s.mu.Lock()
		s.members = append(s.members, *member)
		s.stats.Resolved++
		s.mu.Unlock()
	}
	if s.Stats().Resolved == 0 {
		return fmt.Errorf("no member could be resolved")
	}

	ticker := time.NewTicker(s.config.UpdateInterval)
	defer ticker.Stop()

	timeout := time.NewTimer(s.config.Duration)
	defer timeout.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			s.summary()
			return ctx.Err()
		case <-s.stopChan:
			log.Info("Probe stopped by user")
			s.summary()
			return nil
		case <-timeout.C:
			log.Infof("Probe completed after %s", s.config.Duration)
			s.summary()
			return nil
		case <-ticker.C:
			s.check(ctx, api, tick, log)
			tick++
		}
	}
}

// Stop gracefully shuts down the simulation
func (s *BackendProbe) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

func (s *BackendProbe) resolve(ctx context.Context, api *client.SafeTravel, username string) (*models.Member, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := api.AddMember(reqCtx, username)
	if err != nil {
		return nil, err
	}
	member := *resp.User
	if member.Username == "" {
		member.Username = username
	}
	return &member, nil
}

// snapshot puts the local user on the reference point and spreads the
// members evenly on a circle that turns a little every tick
func (s *BackendProbe) snapshot(tick int) map[string]models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions := map[string]models.Position{
		s.config.LocalUsername: s.config.Reference,
	}
	n := float64(len(s.members))
	for i, m := range s.members {
		angle := float64(tick)*0.1 + float64(i)*(2*math.Pi/n)
		positions[m.Username] = s.config.Reference.Offset(
			s.config.Radius*math.Cos(angle),
			s.config.Radius*math.Sin(angle),
		)
	}
	return positions
}

func (s *BackendProbe) check(ctx context.Context, api *client.SafeTravel, tick int, log logger.Logger) {
	positions := s.snapshot(tick)

	reqCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	resp, err := api.CheckLocations(reqCtx, positions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Checks++
	if err != nil {
		s.stats.Failures++
		log.Errorf("check-locations failed: %s", client.Message(err))
		return
	}
	s.stats.Strays += len(resp.Strays)

	if len(resp.Strays) > 0 {
		log.Warnf("%s (strays: %s)", resp.Message, strings.Join(resp.Strays, ", "))
		return
	}
	log.Infof("%s (%d positions)", resp.Message, len(positions))
}

func (s *BackendProbe) summary() {
	stats := s.Stats()

	table := logger.NewTable("RESOLVED", "CHECKS", "FAILURES", "STRAYS REPORTED")
	table.AddRow(
		strconv.Itoa(stats.Resolved),
		strconv.Itoa(stats.Checks),
		strconv.Itoa(stats.Failures),
		strconv.Itoa(stats.Strays),
	)
	logger.LogSection("Probe summary")
	table.Print()
}
