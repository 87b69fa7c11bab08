// Package store persists fetch checkpoints so long-running CRM pulls can
// resume after interruption instead of re-querying every search term.
package store

import (
	"context"
	"time"

	"github.com/eanna95/trevilleroofing/pkg/affinity"
)

// Checkpoint is the saved state of one fetch run: which search terms are
// done and every organization collected so far.
type Checkpoint struct {
	RunID          string                  `json:"run_id"`
	CompletedTerms []string                `json:"completed_terms"`
	Organizations  []affinity.Organization `json:"organizations"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// Store defines the persistence interface for fetch checkpoints.
type Store interface {
	// GetCheckpoint returns the checkpoint saved under name, or nil when
	// none exists.
	GetCheckpoint(ctx context.Context, name string) (*Checkpoint, error)
	// PutCheckpoint saves the checkpoint under name, assigning a run ID on
	// first save and stamping UpdatedAt.
	PutCheckpoint(ctx context.Context, name string, cp *Checkpoint) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
