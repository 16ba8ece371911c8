package monitor

import (
	"errors"

	"github.com/safetravel/groupwatch/pkg/client"
)

// Error kinds surfaced by the monitor. Network, auth and not-found share the
// client's sentinels so backend failures match without translation.
var (
	ErrNotFound      = client.ErrNotFound
	ErrNetwork       = client.ErrNetwork
	ErrUnauthorized  = client.ErrUnauthorized
	ErrValidation    = errors.New("validation rejected")
	ErrAlreadyMember = errors.New("already a member")
	ErrClosed        = errors.New("session closed")
)
