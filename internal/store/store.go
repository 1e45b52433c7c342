// Package store persists grammars and recognition results for marshad, the
// HTTP daemon. It has no bearing on recognition semantics itself (that is
// entirely internal/grammar and internal/earley); it exists so a daemon
// restart doesn't lose previously uploaded grammars or recognition history.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Grammar is a persisted grammar document, keyed by the name it was
// uploaded under.
type Grammar struct {
	ID      uuid.UUID
	Name    string
	Source  []byte
	Created time.Time
}

// Recognition is a persisted record of one POST .../recognize call.
type Recognition struct {
	ID          uuid.UUID
	GrammarName string
	Input       []string
	Accepted    bool
	Earlemes    int
	Snapshot    ChartSnapshot
	Created     time.Time
}

// GrammarRepository stores and retrieves grammar documents.
type GrammarRepository interface {
	Create(ctx context.Context, name string, source []byte) (Grammar, error)
	GetByName(ctx context.Context, name string) (Grammar, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// RecognitionRepository stores and retrieves recognition results.
type RecognitionRepository interface {
	Create(ctx context.Context, rec Recognition) (Recognition, error)
	GetByID(ctx context.Context, id uuid.UUID) (Recognition, error)
	Close() error
}

// Store holds all of marsha's repositories, mirroring the teacher's
// "Store holds all the repositories" convention.
type Store interface {
	Grammars() GrammarRepository
	Recognitions() RecognitionRepository
	Close() error
}
