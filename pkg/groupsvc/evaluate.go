package groupsvc

import (
	"errors"
	"sort"

	"github.com/safetravel/groupwatch/pkg/geo"
	"github.com/safetravel/groupwatch/pkg/models"
)

// ErrNotEnoughData is returned when fewer than two positions are submitted
var ErrNotEnoughData = errors.New("not enough location data to check")

// Evaluation is the result of measuring a snapshot against its centre
type Evaluation struct {
	Center models.Position
	// Usernames farther than the safe distance, sorted
	Strays []string
	// Usernames within the safe distance, sorted
	Safe []string
}

// Evaluate splits the group into strays and safe members by their haversine
// distance to the group centroid
func Evaluate(positions map[string]models.Position, safeKm float64) (*Evaluation, error) {
	if len(positions) < 2 {
		return nil, ErrNotEnoughData
	}

	usernames := make([]string, 0, len(positions))
	for u := range positions {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)

	points := make([]models.Position, len(usernames))
	for i, u := range usernames {
		points[i] = positions[u]
	}
	center, _ := geo.Centroid(points)

	ev := &Evaluation{Center: center}
	for _, u := range usernames {
		if geo.HaversineKm(center, positions[u]) > safeKm {
			ev.Strays = append(ev.Strays, u)
		} else {
			ev.Safe = append(ev.Safe, u)
		}
	}
	return ev, nil
}
