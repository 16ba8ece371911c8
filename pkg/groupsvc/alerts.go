package groupsvc

import (
	"context"
	"strings"
	"sync"

	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

// AlertMemory remembers which strays have already been reported.
// A stray is reported once until Reset.
type AlertMemory struct {
	mu   sync.Mutex
	sent map[string]struct{}
}

// NewAlertMemory returns an empty memory
func NewAlertMemory() *AlertMemory {
	return &AlertMemory{sent: make(map[string]struct{})}
}

// MarkSent records username and reports whether it was new
func (m *AlertMemory) MarkSent(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sent[username]; ok {
		return false
	}
	m.sent[username] = struct{}{}
	return true
}

// Reset forgets every reported stray
func (m *AlertMemory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = make(map[string]struct{})
}

// Len returns the number of remembered strays
func (m *AlertMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// SeparationAlert tells the safe members that Stray left the group
type SeparationAlert struct {
	Stray      string
	Position   models.Position
	Recipients []string
}

// Notifier delivers separation alerts
type Notifier interface {
	Notify(ctx context.Context, alert SeparationAlert) error
}

// LogNotifier writes alerts to the service log instead of sending mail
type LogNotifier struct {
	Log logger.Logger
}

func (n LogNotifier) Notify(_ context.Context, alert SeparationAlert) error {
	log := n.Log
	if log == nil {
		log = logger.WithPrefix("notify")
	}
	log.WithFields(map[string]interface{}{
		"stray": alert.Stray,
		"lat":   alert.Position.Lat,
		"lng":   alert.Position.Lng,
	}).Warnf("ALERT: %s is separated from the group, notifying %s",
		alert.Stray, strings.Join(alert.Recipients, ", "))
	return nil
}
