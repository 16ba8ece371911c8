package separation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/safetravel/groupwatch/pkg/client"
	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/monitor"
	"github.com/safetravel/groupwatch/pkg/simulation"
)

//go:embed simulation.yaml
var manifest []byte

func init() {
	simulation.DefaultRegistry.MustRegister(manifest, NewGroupSeparation)
}

// GroupSeparation drifts one member away from the group and reports the
// dashboard after every tick
type GroupSeparation struct {
	config   *Config
	display  *display
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewGroupSeparation creates a new instance of the group separation simulation
func NewGroupSeparation() simulation.Simulation {
	return &GroupSeparation{
		display:  newDisplay(os.Stdout),
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *GroupSeparation) Name() string {
	return "Group Separation"
}

// Description returns the simulation description
func (s *GroupSeparation) Description() string {
	return "Drift one group member away until the dashboard raises a separation alert"
}

// Configure sets up the simulation with provided parameters
func (s *GroupSeparation) Configure(params map[string]interface{}) error {
	config, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	s.config = config
	return nil
}

// Run executes the simulation
func (s *GroupSeparation) Run(ctx context.Context, api *client.SafeTravel) error {
	if s.config == nil {
		return fmt.Errorf("simulation is not configured")
	}
	log := logger.WithPrefix("separation")

	session, err := monitor.NewSession(monitor.Options{
		LocalUser:      s.config.LocalUser,
		Reference:      s.config.Reference,
		InviteOffset:   s.config.InviteOffset,
		Backend:        api,
		Policy:         s.config.Policy,
		RequestTimeout: s.config.RequestTimeout,
		Logger:         logger.WithPrefix("monitor"),
		OnUpdate:       s.display.update,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Errorf("Failed to close session: %v", err)
		}
	}()

	for _, username := range s.config.Invite {
		m, err := session.Invite(ctx, username)
		if err != nil {
			if errors.Is(err, monitor.ErrUnauthorized) {
				return fmt.Errorf("not signed in, run `groupwatch login` first: %w", err)
			}
			log.Errorf("Could not add %s: %s", username, client.Message(err))
			continue
		}
		logger.Successf("%s joined the group", m.Label())
	}

	logger.Progressf("Resetting alerts and arming the simulation for %s...", s.config.Run.StrayUsername)
	if err := session.Arm(ctx, s.config.Run); err != nil {
		return fmt.Errorf("failed to start simulation: %w", err)
	}

	var timeout <-chan time.Time
	if s.config.Duration > 0 {
		timer := time.NewTimer(s.config.Duration)
		defer timer.Stop()
		timeout = timer.C
	}

	var runErr error
	select {
	case <-ctx.Done():
		if !s.stopped() {
			runErr = ctx.Err()
		}
	case <-s.stopChan:
		logger.Info("Simulation stopped by user")
	case <-timeout:
		logger.Infof("Simulation completed after %s", s.config.Duration)
	}

	// Disarm renders the final, stopped dashboard through OnUpdate
	session.Disarm()
	return runErr
}

// Stop gracefully shuts down the simulation
func (s *GroupSeparation) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

func (s *GroupSeparation) stopped() bool {
	select {
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

// display renders the dashboard whenever a tick or the alert phase changes
type display struct {
	mu       sync.Mutex
	w        io.Writer
	lastRun  string
	lastTick int
	lastPh   monitor.Phase
}

func newDisplay(w io.Writer) *display {
	return &display{w: w, lastTick: -1}
}

func (d *display) update(dash monitor.Dashboard) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if dash.RunID == d.lastRun && dash.Ticks == d.lastTick && dash.Alert.Phase == d.lastPh {
		return
	}
	separatedNow := dash.Alert.Phase == monitor.PhaseRunningSeparated && d.lastPh != monitor.PhaseRunningSeparated
	d.lastRun, d.lastTick, d.lastPh = dash.RunID, dash.Ticks, dash.Alert.Phase

	if separatedNow {
		logger.Alertf("%s: %s has separated from the group", dash.Alert.Label, dash.Alert.Stray)
	}
	renderDashboard(d.w, dash)
}

// renderDashboard writes one dashboard frame
func renderDashboard(w io.Writer, d monitor.Dashboard) {
	_, _ = fmt.Fprintf(w, "\n%s %s", logger.IconShield, d.Status)
	if d.Alert.RunState == monitor.Running {
		_, _ = fmt.Fprintf(w, " (tick %d, stray %s)", d.Ticks, d.Alert.Stray)
	}
	_, _ = fmt.Fprintf(w, "\nSafety score: %d  %s\n", d.Alert.SafetyScore, d.Alert.Label)

	table := logger.NewTable("MEMBER", "LAT", "LNG", "")
	names := make(map[string]string, len(d.Members))
	for _, m := range d.Members {
		names[m.Username] = m.Label()
	}
	for _, e := range d.Positions {
		mark := ""
		if e.Username == d.Alert.Stray {
			mark = logger.IconPin
		}
		label := names[e.Username]
		if label == "" {
			label = e.Username
		}
		table.AddRow(label, fmt.Sprintf("%.4f", e.Position.Lat), fmt.Sprintf("%.4f", e.Position.Lng), mark)
	}
	table.Render(w)

	if d.Advisory != nil {
		_, _ = fmt.Fprintf(w, "Backend: %s\n", d.Advisory.Message)
	} else if d.RemoteErr != nil {
		_, _ = fmt.Fprintf(w, "Backend unreachable: %s\n", client.Message(d.RemoteErr))
	}
}
