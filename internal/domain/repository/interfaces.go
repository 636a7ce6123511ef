package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by ModelStore.Load when no snapshot exists for the
// user.
var ErrNotFound = errors.New("model store: snapshot not found")

// ErrCorrupt is returned when a persisted snapshot cannot be decoded or its
// version does not match the running architecture. Callers delete and
// rebuild rather than loading mismatched weights.
var ErrCorrupt = errors.New("model store: snapshot corrupt or incompatible")

// ModelStore persists one serialized model snapshot per user in durable
// local storage.
type ModelStore interface {
	// Load reads the snapshot for userID. ErrNotFound on a miss,
	// ErrCorrupt when the blob is unreadable or carries a different
	// architecture version.
	Load(ctx context.Context, userID, version string) ([]byte, error)

	// Save durably replaces the snapshot for userID.
	Save(ctx context.Context, userID, version string, blob []byte) error

	// Delete removes the snapshot. Deleting a missing snapshot is a no-op.
	Delete(ctx context.Context, userID string) error

	// Exists reports whether a snapshot is present for userID.
	Exists(ctx context.Context, userID string) (bool, error)
}

// Metrics records engine observability signals.
type Metrics interface {
	RecordPrediction(userID string)
	RecordTrainingRun(outcome string) // "trained", "insufficient", "cancelled", "failed"
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetCachedModels(n int)
}
