package quest

import (
	"strings"

	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Preferences describe what kind of jobs a profile is hunting for.
type Preferences struct {
	RemoteOnly     bool     `json:"remoteOnly"`
	Keywords       []string `json:"keywords"`
	PreferredRoles []string `json:"preferredRoles"`
}

// Profile is one job seeker. Game state and catalog are stored per profile.
type Profile struct {
	ID          shared.ProfileID `json:"id" validate:"required"`
	Name        string           `json:"name" validate:"required,max=64"`
	Preferences Preferences      `json:"preferences"`
}

// Validate checks the profile's invariants.
func (p Profile) Validate() error {
	if !p.ID.IsValid() {
		return shared.ErrInvalidProfile
	}
	if err := validate.Struct(p); err != nil {
		return shared.WrapError("quest", "ValidateProfile", shared.ErrInvalidEntity, "invalid profile", err)
	}
	return nil
}

// Matches reports whether a job fits the profile's preferences: remote when
// remoteOnly is set, and mentioning at least one keyword when keywords exist.
func (p Profile) Matches(j Job) bool {
	if p.Preferences.RemoteOnly && !j.Remote {
		return false
	}
	if len(p.Preferences.Keywords) == 0 {
		return true
	}
	return j.Mentions(p.Preferences.Keywords...)
}

// DefaultProfiles returns the profiles seeded into an empty registry.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID:   "erik",
			Name: "Erik",
			Preferences: Preferences{
				RemoteOnly:     true,
				Keywords:       []string{"ai", "tech", "japanese", "localization"},
				PreferredRoles: []string{"Community Manager", "Localization", "Content Specialist"},
			},
		},
		{
			ID:   "zack",
			Name: "Zack",
			Preferences: Preferences{
				RemoteOnly:     true,
				Keywords:       []string{"typescript", "react", "node"},
				PreferredRoles: []string{"Frontend Developer", "Full Stack Engineer"},
			},
		},
	}
}

// Registry is the ordered list of known profiles plus the active one.
type Registry struct {
	Profiles []Profile       `json:"profiles"`
	ActiveID shared.ProfileID `json:"activeProfileId"`
}

// NewDefaultRegistry returns the seeded registry with the first profile active.
func NewDefaultRegistry() Registry {
	profiles := DefaultProfiles()
	return Registry{Profiles: profiles, ActiveID: profiles[0].ID}
}

// Find returns the profile with the given id.
func (r Registry) Find(id shared.ProfileID) (Profile, bool) {
	for _, p := range r.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Active returns the active profile, falling back to the first one.
func (r Registry) Active() (Profile, bool) {
	if p, ok := r.Find(r.ActiveID); ok {
		return p, true
	}
	if len(r.Profiles) > 0 {
		return r.Profiles[0], true
	}
	return Profile{}, false
}

// Add returns a registry with p appended. Ids compare case-insensitively.
func (r Registry) Add(p Profile) (Registry, error) {
	if err := p.Validate(); err != nil {
		return r, err
	}
	for _, existing := range r.Profiles {
		if strings.EqualFold(existing.ID.String(), p.ID.String()) {
			return r, shared.ErrProfileExists
		}
	}
	out := Registry{ActiveID: r.ActiveID, Profiles: make([]Profile, 0, len(r.Profiles)+1)}
	out.Profiles = append(out.Profiles, r.Profiles...)
	out.Profiles = append(out.Profiles, p)
	return out, nil
}

// Switch returns a registry with id active.
func (r Registry) Switch(id shared.ProfileID) (Registry, error) {
	if _, ok := r.Find(id); !ok {
		return r, shared.ErrProfileNotFound
	}
	r.ActiveID = id
	return r, nil
}
