package monitor

import (
	"context"
	"fmt"

	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

// LocationChecker is the remote evaluation endpoint
type LocationChecker interface {
	CheckLocations(ctx context.Context, positions map[string]models.Position) (*models.CheckLocationsResponse, error)
}

// Result is the outcome of one evaluation
type Result struct {
	// Alerted is the local verdict and the only input to AlertState
	Alerted bool
	// Skipped is set when fewer than two positions were available
	Skipped bool
	// Advisory is the backend's answer, kept for display only
	Advisory *models.CheckLocationsResponse
	// RemoteErr records a failed remote call; it never fails the evaluation
	RemoteErr error
}

// SeparationEvaluator decides whether the stray member has left the group.
//
// The backend is told about every snapshot, but its payload is not consulted
// for the alert: the local latitude comparison is authoritative. The remote
// answer is surfaced as an advisory until the backend verdict is agreed to
// drive alerts.
type SeparationEvaluator struct {
	remote LocationChecker
	log    logger.Logger
}

// NewSeparationEvaluator creates an evaluator; remote may be nil for local-only use
func NewSeparationEvaluator(remote LocationChecker, log logger.Logger) *SeparationEvaluator {
	if log == nil {
		log = logger.WithPrefix("evaluator")
	}
	return &SeparationEvaluator{remote: remote, log: log}
}

// Evaluate reports the snapshot to the backend and computes the local verdict
func (e *SeparationEvaluator) Evaluate(ctx context.Context, store *PositionStore, reference models.Position, stray string, threshold float64) Result {
	if store.Len() < 2 {
		return Result{Skipped: true}
	}

	var res Result
	res.Advisory, res.RemoteErr = e.Report(ctx, store.Snapshot())

	res.Alerted, _ = e.Local(store, reference, stray, threshold)
	return res
}

// Report submits a snapshot to the backend. Failures are logged and returned
// for bookkeeping only.
func (e *SeparationEvaluator) Report(ctx context.Context, snapshot map[string]models.Position) (*models.CheckLocationsResponse, error) {
	if e.remote == nil {
		return nil, nil
	}

	resp, err := e.remote.CheckLocations(ctx, snapshot)
	if err != nil {
		e.log.Warnf("Location check failed: %v", err)
		return nil, err
	}

	e.log.Debugf("Location check: %s (strays=%v)", resp.Message, resp.Strays)
	return resp, nil
}

// Local compares the stray's latitude against the reference. This is a planar
// latitude-only test: alerted when lat > reference.lat + threshold.
func (e *SeparationEvaluator) Local(store *PositionStore, reference models.Position, stray string, threshold float64) (bool, error) {
	pos, err := store.Get(stray)
	if err != nil {
		return false, fmt.Errorf("evaluate %s: %w", stray, err)
	}
	return pos.Lat > reference.Lat+threshold, nil
}
