package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

// Dashboard status messages
const (
	StatusRunning = "Simulation running..."
	StatusStopped = "Simulation is stopped."
)

// DefaultRequestTimeout bounds every backend call made by a session
const DefaultRequestTimeout = 5 * time.Second

// EvaluationPolicy decides how a tick relates to its check-locations request
type EvaluationPolicy int

const (
	// PolicyOverlap applies the local verdict immediately and sends the
	// request in the background; requests from successive ticks may overlap.
	PolicyOverlap EvaluationPolicy = iota
	// PolicySerialize makes the tick wait for its request, so at most one is
	// in flight. Dashboard reads block while the request is pending.
	PolicySerialize
)

func (p EvaluationPolicy) String() string {
	if p == PolicySerialize {
		return "serialize"
	}
	return "overlap"
}

// ParsePolicy parses "overlap" or "serialize"
func ParsePolicy(s string) (EvaluationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overlap":
		return PolicyOverlap, nil
	case "serialize":
		return PolicySerialize, nil
	default:
		return PolicyOverlap, fmt.Errorf("unknown evaluation policy %q: %w", s, ErrValidation)
	}
}

// GroupService is the slice of the backend a session talks to
type GroupService interface {
	LocationChecker
	MemberDirectory
	ResetAlerts(ctx context.Context) error
}

// SimulationConfig is fixed for the lifetime of one run
type SimulationConfig struct {
	StrayUsername       string
	TickInterval        time.Duration
	Drift               Drift
	SeparationThreshold float64
}

// Validate rejects a config that cannot start a run
func (c SimulationConfig) Validate() error {
	if strings.TrimSpace(c.StrayUsername) == "" {
		return fmt.Errorf("select a member to simulate wandering off first: %w", ErrValidation)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s: %w", c.TickInterval, ErrValidation)
	}
	return nil
}

// Options configures a Session
type Options struct {
	LocalUser    models.Member
	Reference    models.Position
	InviteOffset Drift
	Backend      GroupService

	Policy         EvaluationPolicy
	RequestTimeout time.Duration

	Logger    logger.Logger
	NewTicker TickerFunc

	// OnUpdate receives a fresh Dashboard after every state change. It runs
	// on the tick goroutine and must not call Arm, Disarm or Close.
	OnUpdate func(Dashboard)
}

// Dashboard is everything the display layer renders
type Dashboard struct {
	Status    string
	Alert     AlertSnapshot
	Members   []models.Member
	Positions []Entry
	Config    SimulationConfig
	RunID     string
	Ticks     int

	// Advisory is the latest backend verdict for the active run
	Advisory *models.CheckLocationsResponse
	// RemoteErr is the latest failed check-locations call for the active run
	RemoteErr error
}

// Session is one dashboard session. It owns the store, the alert state and
// the clock; every mutation of the store or the alert state happens under mu,
// and drift plus evaluation of a tick form one critical section.
//
// Operator actions are serialized by opMu. mu is never held while waiting on
// the clock, since Disarm blocks until an in-flight tick, which needs mu,
// returns.
type Session struct {
	opMu sync.Mutex
	mu   sync.Mutex

	store     *PositionStore
	members   *GroupMembershipController
	alerts    *AlertState
	evaluator *SeparationEvaluator
	drift     DriftSimulator
	clock     *SimulationClock

	backend   GroupService
	policy    EvaluationPolicy
	timeout   time.Duration
	reference models.Position
	onUpdate  func(Dashboard)
	log       logger.Logger

	cfg       SimulationConfig
	runID     string
	ticks     int
	advisory  *models.CheckLocationsResponse
	remoteErr error

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	closed   bool
}

// NewSession creates a stopped session with the local user as its only member
func NewSession(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("a backend is required: %w", ErrValidation)
	}
	if opts.Logger == nil {
		opts.Logger = logger.WithPrefix("monitor")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	store := NewPositionStore()
	members, err := NewGroupMembershipController(store, opts.Backend, opts.LocalUser, opts.Reference, opts.InviteOffset)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:     store,
		members:   members,
		alerts:    NewAlertState(),
		evaluator: NewSeparationEvaluator(opts.Backend, opts.Logger),
		clock:     NewSimulationClock(opts.NewTicker),
		backend:   opts.Backend,
		policy:    opts.Policy,
		timeout:   opts.RequestTimeout,
		reference: opts.Reference,
		onUpdate:  opts.OnUpdate,
		log:       opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Arm starts a run. The backend's alert memory is reset first; when that
// fails the error is returned and the session keeps its previous state.
// Arming a running session restarts it with cfg.
func (s *Session) Arm(ctx context.Context, cfg SimulationConfig) error {
	cfg.StrayUsername = strings.TrimSpace(cfg.StrayUsername)
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	s.mu.Lock()
	if !s.store.Has(cfg.StrayUsername) {
		s.log.Warnf("%s is not in the group yet, ticks will be skipped until they join", cfg.StrayUsername)
	}
	s.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.backend.ResetAlerts(reqCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("could not start the simulation: %w", err)
	}

	s.clock.Disarm()

	runID := uuid.NewString()
	s.mu.Lock()
	if err := s.alerts.Arm(cfg.StrayUsername); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = cfg
	s.runID = runID
	s.ticks = 0
	s.advisory = nil
	s.remoteErr = nil
	s.mu.Unlock()

	if err := s.clock.Arm(s.ctx, cfg.TickInterval, s.tick(runID)); err != nil {
		s.mu.Lock()
		s.alerts.Disarm()
		s.runID = ""
		s.mu.Unlock()
		return err
	}

	s.log.WithFields(map[string]interface{}{
		"run":   runID,
		"stray": cfg.StrayUsername,
	}).Infof("Simulation armed every %s (policy %s)", cfg.TickInterval, s.policy)
	s.notify()
	return nil
}

// Disarm stops the run and restores the baseline. Requests already sent are
// not cancelled; their results are dropped when they arrive.
func (s *Session) Disarm() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.disarm()
}

func (s *Session) disarm() {
	s.clock.Disarm()

	s.mu.Lock()
	wasRunning := s.alerts.Running()
	s.alerts.Disarm()
	s.cfg = SimulationConfig{}
	s.runID = ""
	s.advisory = nil
	s.remoteErr = nil
	s.mu.Unlock()

	if wasRunning {
		s.log.Info("Simulation disarmed")
		s.notify()
	}
}

// Invite adds username to the group. An existing member is returned without
// asking the backend; on a backend failure nothing changes locally.
func (s *Session) Invite(ctx context.Context, username string) (models.Member, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return models.Member{}, err
	}
	if s.isClosed() {
		return models.Member{}, ErrClosed
	}

	s.mu.Lock()
	existing, ok := s.members.Member(username)
	s.mu.Unlock()
	if ok {
		return existing, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	m, err := s.members.Resolve(reqCtx, username)
	cancel()
	if err != nil {
		return models.Member{}, fmt.Errorf("could not add %s: %w", username, err)
	}

	s.mu.Lock()
	m, err = s.members.Admit(m)
	s.mu.Unlock()
	if errors.Is(err, ErrAlreadyMember) {
		return m, nil
	}
	if err != nil {
		return models.Member{}, err
	}

	s.log.WithField("member", m.Username).Info("Member joined the group")
	s.notify()
	return m, nil
}

// Remove drops a member and its position
func (s *Session) Remove(username string) error {
	s.mu.Lock()
	err := s.members.Remove(username)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.WithField("member", username).Info("Member left the group")
	s.notify()
	return nil
}

// Rename changes a member's display name
func (s *Session) Rename(username, name string) error {
	s.mu.Lock()
	err := s.members.Rename(username, name)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Dashboard returns a consistent snapshot for display
func (s *Session) Dashboard() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Dashboard{
		Status:    StatusStopped,
		Alert:     s.alerts.Snapshot(),
		Members:   s.members.Members(),
		Positions: s.store.All(),
		Config:    s.cfg,
		RunID:     s.runID,
		Ticks:     s.ticks,
		Advisory:  s.advisory,
		RemoteErr: s.remoteErr,
	}
	if d.Alert.RunState == Running {
		d.Status = StatusRunning
	}
	return d
}

// Close disarms the session and waits for requests still in flight
func (s *Session) Close() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.isClosed() {
		return nil
	}
	s.disarm()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.inflight.Wait()
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) tick(runID string) func(context.Context) {
	return func(ctx context.Context) {
		switch s.policy {
		case PolicySerialize:
			s.tickSerialized(ctx, runID)
		default:
			s.tickOverlapped(runID)
		}
		s.notify()
	}
}

// tickOverlapped drifts and applies the local verdict under the lock, then
// reports the snapshot on its own goroutine.
func (s *Session) tickOverlapped(runID string) {
	s.mu.Lock()
	if !s.activeLocked(runID) {
		s.mu.Unlock()
		return
	}

	log := s.stepLocked(runID)
	if s.store.Len() < 2 {
		s.mu.Unlock()
		log.Debug("Fewer than two members, evaluation skipped")
		return
	}

	alerted, err := s.evaluator.Local(s.store, s.reference, s.cfg.StrayUsername, s.cfg.SeparationThreshold)
	if err == nil {
		s.applyLocked(log, alerted)
	}
	snapshot := s.store.Snapshot()
	s.inflight.Add(1)
	s.mu.Unlock()

	if err != nil {
		log.Debugf("Local check skipped: %v", err)
	}

	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		resp, err := s.evaluator.Report(ctx, snapshot)
		s.recordRemote(runID, resp, err)
	}()
}

// tickSerialized holds the lock for the whole tick, request included
func (s *Session) tickSerialized(ctx context.Context, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked(runID) {
		return
	}

	log := s.stepLocked(runID)

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.evaluator.Evaluate(reqCtx, s.store, s.reference, s.cfg.StrayUsername, s.cfg.SeparationThreshold)
	if res.Skipped {
		log.Debug("Fewer than two members, evaluation skipped")
		return
	}
	if res.Advisory != nil || res.RemoteErr != nil {
		s.advisory, s.remoteErr = res.Advisory, res.RemoteErr
	}
	s.applyLocked(log, res.Alerted)
}

func (s *Session) activeLocked(runID string) bool {
	return s.runID == runID && s.alerts.Running()
}

// stepLocked advances the stray by one drift step
func (s *Session) stepLocked(runID string) logger.Logger {
	s.ticks++
	log := s.log.WithFields(map[string]interface{}{
		"run":  runID,
		"tick": s.ticks,
	})

	if !s.drift.Step(s.store, s.cfg.StrayUsername, s.cfg.Drift) {
		log.Debugf("%s has no position, drift skipped", s.cfg.StrayUsername)
	}
	return log
}

func (s *Session) applyLocked(log logger.Logger, alerted bool) {
	if s.alerts.Apply(alerted) {
		log.Warnf("%s has separated from the group", s.cfg.StrayUsername)
	}
}

func (s *Session) recordRemote(runID string, resp *models.CheckLocationsResponse, err error) {
	s.mu.Lock()
	if !s.activeLocked(runID) {
		s.mu.Unlock()
		s.log.WithField("run", runID).Debug("Dropping check-locations result from a finished run")
		return
	}
	s.advisory, s.remoteErr = resp, err
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.Dashboard())
	}
}
