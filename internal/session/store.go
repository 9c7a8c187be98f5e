package session

import (
	"context"

	"github.com/lanepark/chesshall/internal/domain"
)

// Store is the durable mapping from join code to session record. All
// manager mutations go through Update, whose implementations guarantee
// that two concurrent read-modify-writes on the same code never both
// act on the same "before" state: the Redis store uses WATCH
// check-and-set, the memory store a per-code mutex. Losing the race
// surfaces ErrConflict.
type Store interface {
	// Create persists a brand-new record. Returns ErrCodeTaken when the
	// join code is already bound, which drives generation retry.
	Create(ctx context.Context, s *domain.Session) error
	// Get returns a copy of the record or ErrNotFound.
	Get(ctx context.Context, joinCode string) (*domain.Session, error)
	// Exists reports whether the join code is bound.
	Exists(ctx context.Context, joinCode string) (bool, error)
	// Update runs fn inside an atomic read-modify-write of the record.
	// fn mutates the passed record in place; any error from fn aborts
	// the write and is returned as-is. On success the persisted record
	// (version bumped) is returned.
	Update(ctx context.Context, joinCode string, fn func(*domain.Session) error) (*domain.Session, error)
}
