package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ErrVersionMismatch means a snapshot was produced by a different
// architecture. The caller deletes it and retrains rather than loading
// mismatched weights.
var ErrVersionMismatch = errors.New("model: snapshot version mismatch")

// Snapshot is the persisted form of a trained network: architecture config,
// version string and every weight tensor. JSON keeps float64 values exact,
// so a reloaded network reproduces bit-identical predictions.
type Snapshot struct {
	ID      string    `json:"id"`
	Version string    `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Config  Config    `json:"config"`

	L1   *gruLayer   `json:"l1"`
	Norm *layerNorm  `json:"norm"`
	L2   *gruLayer   `json:"l2"`
	D1   *denseLayer `json:"d1"`
	D2   *denseLayer `json:"d2"`
}

// Marshal serializes the network for the model store.
func (n *Network) Marshal() ([]byte, error) {
	snap := Snapshot{
		ID:      uuid.NewString(),
		Version: n.cfg.Version(),
		SavedAt: time.Now().UTC(),
		Config:  n.cfg,
		L1:      n.l1,
		Norm:    n.norm,
		L2:      n.l2,
		D1:      n.d1,
		D2:      n.d2,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}

// Unmarshal rebuilds a network from a snapshot produced by Marshal. The
// expected config pins the architecture the caller is running; any
// difference is a version mismatch.
func Unmarshal(blob []byte, expect Config) (*Network, error) {
	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != expect.Version() {
		return nil, fmt.Errorf("%w: have %q want %q", ErrVersionMismatch, snap.Version, expect.Version())
	}
	if snap.L1 == nil || snap.Norm == nil || snap.L2 == nil || snap.D1 == nil || snap.D2 == nil {
		return nil, fmt.Errorf("decode snapshot: missing layers")
	}

	n := &Network{
		cfg:  snap.Config,
		l1:   snap.L1,
		norm: snap.Norm,
		l2:   snap.L2,
		d1:   snap.D1,
		d2:   snap.D2,
	}
	// Optimizer moments are not persisted; training after a reload starts
	// with a fresh Adam state.
	n.adam = newAdamState(n)
	n.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	return n, nil
}

// Checkpoint is an in-memory deep copy of the weight tensors, used by early
// stopping to restore the best validation epoch.
type Checkpoint struct {
	l1, l2 *gruLayer
	norm   *layerNorm
	d1, d2 *denseLayer
}

// CheckpointWeights deep-copies the current weights.
func (n *Network) CheckpointWeights() *Checkpoint {
	return &Checkpoint{
		l1:   cloneGRU(n.l1),
		norm: &layerNorm{Gain: append([]float64(nil), n.norm.Gain...), Bias: append([]float64(nil), n.norm.Bias...)},
		l2:   cloneGRU(n.l2),
		d1:   &denseLayer{W: n.d1.W.clone(), B: append([]float64(nil), n.d1.B...)},
		d2:   &denseLayer{W: n.d2.W.clone(), B: append([]float64(nil), n.d2.B...)},
	}
}

// RestoreWeights replaces the current weights with a checkpoint.
func (n *Network) RestoreWeights(c *Checkpoint) {
	n.l1 = cloneGRU(c.l1)
	n.norm = &layerNorm{Gain: append([]float64(nil), c.norm.Gain...), Bias: append([]float64(nil), c.norm.Bias...)}
	n.l2 = cloneGRU(c.l2)
	n.d1 = &denseLayer{W: c.d1.W.clone(), B: append([]float64(nil), c.d1.B...)}
	n.d2 = &denseLayer{W: c.d2.W.clone(), B: append([]float64(nil), c.d2.B...)}
}

func cloneGRU(l *gruLayer) *gruLayer {
	return &gruLayer{
		In: l.In, Hidden: l.Hidden,
		Wz: l.Wz.clone(), Wr: l.Wr.clone(), Wh: l.Wh.clone(),
		Uz: l.Uz.clone(), Ur: l.Ur.clone(), Uh: l.Uh.clone(),
		Bz: append([]float64(nil), l.Bz...),
		Br: append([]float64(nil), l.Br...),
		Bh: append([]float64(nil), l.Bh...),
	}
}
