// Package store persists computed scenario snapshots so the HTTP API can
// reconcile against a schedule by id. This is the only persistence the engine
// carries; everything else is transient per request.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/revisional/loan-engine/internal/report"
	"github.com/revisional/loan-engine/internal/request"
)

// ErrNotFound is returned when no snapshot exists under the given id.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one persisted calculation: the request that produced it plus
// both schedules and their comparison.
type Snapshot struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Request   request.Request `json:"request"`
	Result    report.Result   `json:"result"`
}

// Storage defines the persistence operations for scenario snapshots.
type Storage interface {
	SaveSnapshot(snapshot *Snapshot) error
	GetSnapshot(id uuid.UUID) (*Snapshot, error)
	ListSnapshots() ([]*Snapshot, error)
	DeleteSnapshot(id uuid.UUID) error

	Close() error
}
