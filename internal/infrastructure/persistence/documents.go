// Package persistence stores JobQuest documents in a key-value store.
//
// Every profile owns two JSON documents, its game state and its job catalog.
// The profile registry lives in two more documents shared by all profiles.
// Backends only need to get single keys and replace a set of keys atomically.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// Store is the key-value contract every backend implements.
type Store interface {
	// Get returns the raw document under key. found is false for a missing key.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// PutAll replaces every given key in one atomic write.
	PutAll(ctx context.Context, docs map[string][]byte) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// ══════════════════════════════════════════════════════════════════════════════

// Document key layout.
const (
	PrefixGameState  = "gamestate:"
	PrefixJobs       = "jobs:"
	KeyProfiles      = "profiles"
	KeyActiveProfile = "active_profile"
	DefaultKeyPrefix = "jobquest:"
)

// Keys builds namespaced document keys.
type Keys struct {
	Prefix string
}

// GameState returns the key of a profile's game state.
func (k Keys) GameState(id shared.ProfileID) string {
	return k.Prefix + PrefixGameState + id.String()
}

// Jobs returns the key of a profile's job catalog.
func (k Keys) Jobs(id shared.ProfileID) string {
	return k.Prefix + PrefixJobs + id.String()
}

// Profiles returns the key of the profile list.
func (k Keys) Profiles() string {
	return k.Prefix + KeyProfiles
}

// ActiveProfile returns the key of the active profile id.
func (k Keys) ActiveProfile() string {
	return k.Prefix + KeyActiveProfile
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// DocumentRepository maps snapshots and the profile registry onto a Store.
// It implements progress.Repository and progress.ProfileRepository.
type DocumentRepository struct {
	store Store
	keys  Keys
}

var (
	_ progress.Repository        = (*DocumentRepository)(nil)
	_ progress.ProfileRepository = (*DocumentRepository)(nil)
)

// NewDocumentRepository creates a repository over store with the given key prefix.
func NewDocumentRepository(store Store, prefix string) *DocumentRepository {
	return &DocumentRepository{store: store, keys: Keys{Prefix: prefix}}
}

// Store returns the underlying store.
func (r *DocumentRepository) Store() Store {
	return r.store
}

// Keys returns the key layout in use.
func (r *DocumentRepository) Keys() Keys {
	return r.keys
}

// Load returns the profile's snapshot, substituting initial values for
// missing documents.
func (r *DocumentRepository) Load(ctx context.Context, id shared.ProfileID) (progress.Snapshot, error) {
	snap := progress.InitialSnapshot()

	if _, err := r.getJSON(ctx, r.keys.GameState(id), &snap.State); err != nil {
		return progress.Snapshot{}, err
	}
	snap.State = snap.State.Normalize()

	catalog := quest.NewCatalog()
	if _, err := r.getJSON(ctx, r.keys.Jobs(id), &catalog); err != nil {
		return progress.Snapshot{}, err
	}
	if catalog == nil {
		catalog = quest.NewCatalog()
	}
	snap.Catalog = catalog

	return snap, nil
}

// Save writes both of the profile's documents in one atomic write.
func (r *DocumentRepository) Save(ctx context.Context, id shared.ProfileID, snap progress.Snapshot) error {
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("persistence: encode game state: %w", err)
	}
	catalog := snap.Catalog
	if catalog == nil {
		catalog = quest.NewCatalog()
	}
	jobs, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("persistence: encode job catalog: %w", err)
	}

	err = r.store.PutAll(ctx, map[string][]byte{
		r.keys.GameState(id): state,
		r.keys.Jobs(id):      jobs,
	})
	if err != nil {
		return fmt.Errorf("persistence: save profile %s: %w", id, err)
	}
	return nil
}

// LoadRegistry returns the stored registry. Without a stored profile list the
// default profiles are returned. An unknown active id falls back to the first
// profile.
func (r *DocumentRepository) LoadRegistry(ctx context.Context) (quest.Registry, error) {
	reg := quest.NewDefaultRegistry()

	var profiles []quest.Profile
	found, err := r.getJSON(ctx, r.keys.Profiles(), &profiles)
	if err != nil {
		return quest.Registry{}, err
	}
	if found && len(profiles) > 0 {
		reg.Profiles = profiles
		reg.ActiveID = profiles[0].ID
	}

	var active shared.ProfileID
	found, err = r.getJSON(ctx, r.keys.ActiveProfile(), &active)
	if err != nil {
		return quest.Registry{}, err
	}
	if found {
		if _, ok := reg.Find(active); ok {
			reg.ActiveID = active
		}
	}
	return reg, nil
}

// SaveRegistry writes the profile list and the active id together.
func (r *DocumentRepository) SaveRegistry(ctx context.Context, reg quest.Registry) error {
	profiles, err := json.Marshal(reg.Profiles)
	if err != nil {
		return fmt.Errorf("persistence: encode profiles: %w", err)
	}
	active, err := json.Marshal(reg.ActiveID)
	if err != nil {
		return fmt.Errorf("persistence: encode active profile: %w", err)
	}

	err = r.store.PutAll(ctx, map[string][]byte{
		r.keys.Profiles():      profiles,
		r.keys.ActiveProfile(): active,
	})
	if err != nil {
		return fmt.Errorf("persistence: save registry: %w", err)
	}
	return nil
}

func (r *DocumentRepository) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("persistence: get %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, shared.WrapError("persistence", "Load", shared.ErrInvalidFormat, "corrupt document "+key, err)
	}
	return true, nil
}
