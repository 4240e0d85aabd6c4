// Package domain contains entity without logic, just meta-data
package domain

import (
	"github.com/google/uuid"
)

// ConnID identifies one open real-time channel. It is assigned at connect
// time and never reused.
type ConnID string

// NewConnID is a tiny helper to avoid ad-hoc uuid calls in adapters.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}
