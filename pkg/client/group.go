package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/safetravel/groupwatch/pkg/models"
)

// CheckLocations submits the group's positions for evaluation
func (c *SafeTravel) CheckLocations(ctx context.Context, positions map[string]models.Position) (*models.CheckLocationsResponse, error) {
	req := &models.CheckLocationsRequest{FriendLocations: positions}
	resp, err := c.doRequest(ctx, http.MethodPost, "/group/check-locations", req, true)
	if err != nil {
		return nil, fmt.Errorf("failed to check locations: %w", err)
	}

	var result models.CheckLocationsResponse
	if err := decodeResponse(c.log, resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode check-locations response: %w", err)
	}

	return &result, nil
}

// ResetAlerts clears the backend's per-run alert memory
func (c *SafeTravel) ResetAlerts(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/group/reset-alerts", nil, true)
	if err != nil {
		return fmt.Errorf("failed to reset alerts: %w", err)
	}
	return decodeResponse(c.log, resp, nil)
}

// AddMember resolves username to a member the caller may add to the group
func (c *SafeTravel) AddMember(ctx context.Context, username string) (*models.AddMemberResponse, error) {
	req := &models.AddMemberRequest{Username: username}
	resp, err := c.doRequest(ctx, http.MethodPost, "/group/add-member", req, true)
	if err != nil {
		return nil, fmt.Errorf("failed to add member %s: %w", username, err)
	}

	var result models.AddMemberResponse
	if err := decodeResponse(c.log, resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode add-member response: %w", err)
	}
	if result.User == nil {
		return nil, fmt.Errorf("add-member response for %s carried no user", username)
	}

	return &result, nil
}
