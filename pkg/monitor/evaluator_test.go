package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

// fakeBackend is an in-memory GroupService
type fakeBackend struct {
	mu sync.Mutex

	checkErr  error
	resetErr  error
	directory map[string]models.Member

	checks  []map[string]models.Position
	resets  int
	lookups []string

	// block, when set, holds check-locations calls until closed
	block chan struct{}
}

func (f *fakeBackend) CheckLocations(ctx context.Context, positions map[string]models.Position) (*models.CheckLocationsResponse, error) {
	f.mu.Lock()
	f.checks = append(f.checks, positions)
	err := f.checkErr
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.CheckLocationsResponse{Message: fmt.Sprintf("checked %d", len(positions))}, nil
}

func (f *fakeBackend) ResetAlerts(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.resetErr
}

func (f *fakeBackend) AddMember(_ context.Context, username string) (*models.AddMemberResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, username)
	m, ok := f.directory[username]
	if !ok {
		return nil, fmt.Errorf("failed to add member %s: %w", username, ErrNotFound)
	}
	return &models.AddMemberResponse{Message: fmt.Sprintf("User %s found successfully!", username), User: &m}, nil
}

func (f *fakeBackend) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}

func (f *fakeBackend) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups)
}

func groupStore(stray models.Position) *PositionStore {
	s := NewPositionStore()
	s.Set("Sahil006", models.Position{Lat: 19.0760, Lng: 72.8777})
	s.Set("Amit", stray)
	return s
}

var reference = models.Position{Lat: 19.0760, Lng: 72.8777}

func TestEvaluateLocalThreshold(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		want bool
	}{
		{"seed position", 19.0770, false},
		{"one step", 19.0785, false},
		{"two steps", 19.0800, true},
		{"south is never separated", 18.0, false},
	}

	e := NewSeparationEvaluator(nil, logger.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := groupStore(models.Position{Lat: tt.lat, Lng: 72.8767})
			got, err := e.Local(s, reference, "Amit", 0.003)
			if err != nil {
				t.Fatalf("Local: %v", err)
			}
			if got != tt.want {
				t.Errorf("Local(lat=%v) = %v, want %v", tt.lat, got, tt.want)
			}
		})
	}
}

func TestEvaluateSkipsSmallGroups(t *testing.T) {
	backend := &fakeBackend{}
	e := NewSeparationEvaluator(backend, logger.Nop())

	s := NewPositionStore()
	s.Set("Amit", models.Position{Lat: 50})

	res := e.Evaluate(context.Background(), s, reference, "Amit", 0.003)
	if !res.Skipped || res.Alerted {
		t.Errorf("Evaluate = %+v, want skipped and not alerted", res)
	}
	if backend.checkCount() != 0 {
		t.Errorf("remote called %d times for a single member", backend.checkCount())
	}
}

func TestEvaluateRemoteResultIsAdvisory(t *testing.T) {
	backend := &fakeBackend{}
	e := NewSeparationEvaluator(backend, logger.Nop())

	res := e.Evaluate(context.Background(), groupStore(models.Position{Lat: 19.0800}), reference, "Amit", 0.003)
	if !res.Alerted {
		t.Error("local verdict lost")
	}
	if res.Advisory == nil || res.Advisory.Message != "checked 2" {
		t.Errorf("Advisory = %+v", res.Advisory)
	}
	if res.RemoteErr != nil {
		t.Errorf("RemoteErr = %v", res.RemoteErr)
	}
}

func TestEvaluateToleratesRemoteFailure(t *testing.T) {
	backend := &fakeBackend{checkErr: fmt.Errorf("%w: connection refused", ErrNetwork)}
	e := NewSeparationEvaluator(backend, logger.Nop())

	res := e.Evaluate(context.Background(), groupStore(models.Position{Lat: 19.0800}), reference, "Amit", 0.003)
	if !res.Alerted {
		t.Error("remote failure suppressed the local verdict")
	}
	if !errors.Is(res.RemoteErr, ErrNetwork) {
		t.Errorf("RemoteErr = %v, want ErrNetwork", res.RemoteErr)
	}
	if backend.checkCount() != 1 {
		t.Errorf("checks = %d", backend.checkCount())
	}
}

func TestEvaluateMissingStray(t *testing.T) {
	e := NewSeparationEvaluator(nil, logger.Nop())
	s := groupStore(models.Position{Lat: 19.0800})

	if _, err := e.Local(s, reference, "Riya", 0.003); !errors.Is(err, ErrNotFound) {
		t.Errorf("Local error = %v, want ErrNotFound", err)
	}
	res := e.Evaluate(context.Background(), s, reference, "Riya", 0.003)
	if res.Alerted {
		t.Error("missing stray raised an alert")
	}
}
