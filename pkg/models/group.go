package models

import "fmt"

// Member is a participant of a travelling group.
// @Description Identity of a group member as returned by the SafeTravel API.
// @name Member
type Member struct {
	// Backend identifier of the user
	ID string `json:"id" example:"66f1c2a9e4b0a1d2c3e4f5a6"`
	// Display name shown on the dashboard
	Name string `json:"name" example:"Amit Sharma"`
	// Unique username; the key for positions and invitations
	Username string `json:"username" example:"Amit"`
}

// Label renders the member the way the dashboard lists it
func (m Member) Label() string {
	if m.Name == "" {
		return m.Username
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.Username)
}

// Position is a planar latitude/longitude pair in degrees.
// @name Position
type Position struct {
	Lat float64 `json:"lat" example:"19.076"`
	Lng float64 `json:"lng" example:"72.8777"`
}

// Offset returns the position moved by dLat/dLng degrees
func (p Position) Offset(dLat, dLng float64) Position {
	return Position{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

// CheckLocationsRequest submits a snapshot of every member's position.
// @name CheckLocationsRequest
type CheckLocationsRequest struct {
	// Positions keyed by username
	FriendLocations map[string]Position `json:"friendLocations"`
}

// CheckLocationsResponse is the backend's evaluation of a snapshot.
// The dashboard treats it as advisory only.
// @name CheckLocationsResponse
type CheckLocationsResponse struct {
	Message string `json:"message"`
	// Usernames the backend considers separated from the group centre
	Strays []string `json:"strays,omitempty"`
	// Group centre the backend measured against
	Center *Position `json:"center,omitempty"`
}

// AddMemberRequest asks the backend to resolve a username for the group.
// @name AddMemberRequest
type AddMemberRequest struct {
	Username string `json:"username" binding:"required" example:"Amit"`
}

// AddMemberResponse is returned when the username exists.
// @name AddMemberResponse
type AddMemberResponse struct {
	Message string  `json:"message" example:"User Amit found successfully!"`
	User    *Member `json:"user,omitempty"`
}

// MessageResponse is the generic body the backend uses for acknowledgements and failures.
// @name MessageResponse
type MessageResponse struct {
	Message string `json:"message"`
}

// SignInRequest exchanges credentials for a bearer token.
// @name SignInRequest
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse carries the issued bearer token.
// @name SignInResponse
type SignInResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}
