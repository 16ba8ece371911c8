package groupsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

// Directory is the user lookup the server needs
type Directory interface {
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByToken(ctx context.Context, token string) (*User, error)
	Emails(ctx context.Context, usernames []string) ([]string, error)
}

// Server serves the /api/group endpoints
type Server struct {
	cfg       *Config
	directory Directory
	alerts    *AlertMemory
	notifier  Notifier
	metrics   *Metrics
	log       logger.Logger
	router    *mux.Router
}

// ServerOptions wires a Server. Zero fields get defaults.
type ServerOptions struct {
	Config    *Config
	Directory Directory
	Alerts    *AlertMemory
	Notifier  Notifier
	Metrics   *Metrics
	Logger    logger.Logger
}

type contextKey struct{}

// NewServer builds the router and its dependencies
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Directory == nil {
		return nil, errors.New("groupsvc: directory is required")
	}

	s := &Server{
		cfg:       opts.Config,
		directory: opts.Directory,
		alerts:    opts.Alerts,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
	if s.cfg == nil {
		s.cfg = DefaultConfig()
	}
	if s.alerts == nil {
		s.alerts = NewAlertMemory()
	}
	if s.log == nil {
		s.log = logger.WithPrefix("groupd")
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Log: s.log.WithPrefix("notify")}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metrics.Middleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	group := r.PathPrefix("/api/group").Subrouter()
	group.Use(s.authenticate)
	group.HandleFunc("/check-locations", s.handleCheckLocations).Methods(http.MethodPost)
	group.HandleFunc("/add-member", s.handleAddMember).Methods(http.MethodPost)
	group.HandleFunc("/reset-alerts", s.handleResetAlerts).Methods(http.MethodPost)

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// Alerts exposes the alert memory
func (s *Server) Alerts() *AlertMemory { return s.alerts }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "Authentication token is missing!")
			return
		}

		user, err := s.directory.UserByToken(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUserNotFound) {
				s.log.Errorf("Token lookup failed: %v", err)
			}
			writeMessage(w, http.StatusUnauthorized, "Token is invalid or expired!")
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the authenticated caller of a group request
func CurrentUser(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheckLocations(w http.ResponseWriter, r *http.Request) {
	var req models.CheckLocationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ev, err := Evaluate(req.FriendLocations, s.cfg.SafeDistanceKm)
	if err != nil {
		s.metrics.checks.WithLabelValues("rejected").Inc()
		writeMessage(w, http.StatusBadRequest, "Not enough location data to check")
		return
	}
	s.metrics.strays.Observe(float64(len(ev.Strays)))

	resp := models.CheckLocationsResponse{
		Message: "Locations checked",
		Strays:  ev.Strays,
		Center:  &ev.Center,
	}

	if len(ev.Strays) == 0 || len(ev.Safe) == 0 {
		s.metrics.checks.WithLabelValues("clear").Inc()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	s.metrics.checks.WithLabelValues("separated").Inc()

	recipients, err := s.directory.Emails(r.Context(), ev.Safe)
	if err != nil {
		s.log.Errorf("Recipient lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to look up recipients")
		return
	}
	if len(recipients) == 0 {
		resp.Message = "No recipients found to send alerts to."
		writeJSON(w, http.StatusOK, resp)
		return
	}

	for _, stray := range ev.Strays {
		if !s.alerts.MarkSent(stray) {
			s.log.Debugf("Alert for %s has already been sent", stray)
			continue
		}
		alert := SeparationAlert{
			Stray:      stray,
			Position:   req.FriendLocations[stray],
			Recipients: recipients,
		}
		if err := s.notifier.Notify(r.Context(), alert); err != nil {
			s.log.Errorf("Failed to notify about %s: %v", stray, err)
			continue
		}
		s.metrics.alertsSent.Inc()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req models.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" {
		writeMessage(w, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := s.directory.UserByUsername(r.Context(), req.Username)
	if errors.Is(err, ErrUserNotFound) {
		s.metrics.lookups.WithLabelValues("not_found").Inc()
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.log.Errorf("User lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to look up user")
		return
	}
	s.metrics.lookups.WithLabelValues("found").Inc()

	member := user.Member()
	writeJSON(w, http.StatusOK, models.AddMemberResponse{
		Message: fmt.Sprintf("User %s found successfully!", req.Username),
		User:    &member,
	})
}

func (s *Server) handleResetAlerts(w http.ResponseWriter, r *http.Request) {
	s.alerts.Reset()
	s.metrics.alertResets.Inc()
	if u, ok := CurrentUser(r.Context()); ok {
		s.log.WithField("by", u.Username).Info("Alert memory has been reset")
	}
	writeMessage(w, http.StatusOK, "Alert memory has been reset")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.MessageResponse{Message: msg})
}
