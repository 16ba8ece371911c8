package groupsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetravel/groupwatch/pkg/client"
	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []SeparationAlert
}

func (n *recordingNotifier) Notify(_ context.Context, alert SeparationAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *recordingNotifier) strays() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.alerts))
	for i, a := range n.alerts {
		out[i] = a.Stray
	}
	return out
}

type fixture struct {
	server   *Server
	http     *httptest.Server
	notifier *recordingNotifier
	token    string
	api      *client.SafeTravel
}

var (
	mumbai   = models.Position{Lat: 19.0760, Lng: 72.8777}
	together = map[string]models.Position{
		"Sahil006": mumbai,
		"Riya":     mumbai.Offset(0.0002, 0.0002),
		"Amit":     mumbai.Offset(0.0001, -0.0001),
	}
	separated = map[string]models.Position{
		"Sahil006": mumbai,
		"Riya":     mumbai.Offset(0.0002, 0.0002),
		"Kabir":    mumbai.Offset(-0.0002, 0.0001),
		"Amit":     mumbai.Offset(0.005, 0),
	}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := openTestStore(t)
	_, token, err := store.CreateUser(ctx, "You", "Sahil006", "sahil@example.com")
	require.NoError(t, err)
	_, _, err = store.CreateUser(ctx, "Amit Sharma", "Amit", "amit@example.com")
	require.NoError(t, err)
	_, _, err = store.CreateUser(ctx, "Riya", "Riya", "riya@example.com")
	require.NoError(t, err)
	_, _, err = store.CreateUser(ctx, "Kabir", "Kabir", "")
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	srv, err := NewServer(ServerOptions{
		Directory: store,
		Notifier:  notifier,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	api, err := client.NewClient(client.Config{
		BaseURL:     ts.URL + "/api",
		Credentials: client.StaticToken(token),
		Logger:      logger.Nop(),
	})
	require.NoError(t, err)

	return &fixture{server: srv, http: ts, notifier: notifier, token: token, api: api}
}

func (f *fixture) post(t *testing.T, path, token string, body string) (*http.Response, models.MessageResponse) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.http.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var msg models.MessageResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &msg), string(raw))
	return resp, msg
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	resp, msg := f.post(t, "/api/group/reset-alerts", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication token is missing!", msg.Message)

	resp, msg = f.post(t, "/api/group/reset-alerts", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token is invalid or expired!", msg.Message)

	resp, msg = f.post(t, "/api/group/reset-alerts", f.token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alert memory has been reset", msg.Message)
}

func TestClientUnauthorized(t *testing.T) {
	f := newFixture(t)

	api, err := client.NewClient(client.Config{
		BaseURL:     f.http.URL + "/api",
		Credentials: client.StaticToken("stale"),
		Logger:      logger.Nop(),
	})
	require.NoError(t, err)

	err = api.ResetAlerts(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.api.AddMember(ctx, "Amit")
	require.NoError(t, err)
	assert.Equal(t, "User Amit found successfully!", resp.Message)
	assert.Equal(t, "Amit Sharma", resp.User.Name)
	assert.Equal(t, "Amit", resp.User.Username)
	assert.NotEmpty(t, resp.User.ID)

	_, err = f.api.AddMember(ctx, "Ghost")
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Equal(t, "User not found", client.Message(err))

	r, msg := f.post(t, "/api/group/add-member", f.token, `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Equal(t, "Username is required", msg.Message)
}

func TestCheckLocationsNeedsTwoPositions(t *testing.T) {
	f := newFixture(t)

	_, err := f.api.CheckLocations(context.Background(), map[string]models.Position{"Amit": mumbai})
	require.Error(t, err)
	assert.Equal(t, "Not enough location data to check", client.Message(err))

	r, _ := f.post(t, "/api/group/check-locations", f.token, `not json`)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestCheckLocationsTogether(t *testing.T) {
	f := newFixture(t)

	resp, err := f.api.CheckLocations(context.Background(), together)
	require.NoError(t, err)
	assert.Equal(t, "Locations checked", resp.Message)
	assert.Empty(t, resp.Strays)
	require.NotNil(t, resp.Center)
	assert.Empty(t, f.notifier.strays())
}

func TestCheckLocationsAlertsOncePerRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.api.CheckLocations(ctx, separated)
	require.NoError(t, err)
	assert.Equal(t, []string{"Amit"}, resp.Strays)
	assert.Equal(t, []string{"Amit"}, f.notifier.strays())

	f.notifier.mu.Lock()
	alert := f.notifier.alerts[0]
	f.notifier.mu.Unlock()
	assert.Equal(t, separated["Amit"], alert.Position)
	// Kabir has no address on file
	assert.Equal(t, []string{"riya@example.com", "sahil@example.com"}, alert.Recipients)

	_, err = f.api.CheckLocations(ctx, separated)
	require.NoError(t, err)
	assert.Len(t, f.notifier.strays(), 1, "second check must not alert again")

	require.NoError(t, f.api.ResetAlerts(ctx))
	assert.Equal(t, 0, f.server.Alerts().Len())

	_, err = f.api.CheckLocations(ctx, separated)
	require.NoError(t, err)
	assert.Equal(t, []string{"Amit", "Amit"}, f.notifier.strays())
}

func TestCheckLocationsWithoutRecipients(t *testing.T) {
	f := newFixture(t)

	// None of the safe members has an address on file
	positions := map[string]models.Position{
		"Kabir":  mumbai,
		"Ghost1": mumbai.Offset(0.0001, 0),
		"Ghost2": mumbai.Offset(-0.0001, 0),
		"Amit":   mumbai.Offset(0.005, 0),
	}

	resp, err := f.api.CheckLocations(context.Background(), positions)
	require.NoError(t, err)
	assert.Equal(t, "No recipients found to send alerts to.", resp.Message)
	assert.Equal(t, []string{"Amit"}, resp.Strays)
	assert.Empty(t, f.notifier.strays())
}

func TestMetricsRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.api.CheckLocations(ctx, separated)
	require.NoError(t, err)
	_, err = f.api.AddMember(ctx, "Amit")
	require.NoError(t, err)

	m := f.server.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("separated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.httpRequests.WithLabelValues("/api/group/check-locations", http.MethodPost, "200")))

	resp, err := http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "groupd_alerts_sent_total 1"))
}
