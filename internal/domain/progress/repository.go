package progress

import (
	"context"

	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is everything stored for one profile: its game state and its job catalog.
type Snapshot struct {
	State   GameState
	Catalog quest.Catalog
}

// InitialSnapshot is what a profile without stored documents starts from.
func InitialSnapshot() Snapshot {
	return Snapshot{State: InitialState(), Catalog: quest.NewCatalog()}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{State: s.State.Clone(), Catalog: s.Catalog.Clone()}
}

// Repository persists per-profile snapshots.
type Repository interface {
	// Load returns the profile's snapshot. Missing documents are replaced by
	// their initial values, so a never-seen profile loads as InitialSnapshot.
	Load(ctx context.Context, profileID shared.ProfileID) (Snapshot, error)

	// Save replaces both documents of the profile in one atomic write.
	Save(ctx context.Context, profileID shared.ProfileID, snap Snapshot) error
}

// ProfileRepository persists the profile registry and the active profile.
type ProfileRepository interface {
	// LoadRegistry returns the stored registry, seeding the default profiles
	// when nothing is stored yet.
	LoadRegistry(ctx context.Context) (quest.Registry, error)

	// SaveRegistry replaces the stored registry.
	SaveRegistry(ctx context.Context, reg quest.Registry) error
}
