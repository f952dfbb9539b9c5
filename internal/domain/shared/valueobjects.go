package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Profile IDs
// ═══════════════════════════════════════════════════════════════════════════

// ProfileID identifies a job seeker profile. It is embedded in storage keys,
// so it is restricted to a key-safe alphabet.
type ProfileID string

var profileIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// IsValid reports whether p is safe to embed in a storage key.
func (p ProfileID) IsValid() bool {
	return profileIDRegex.MatchString(string(p))
}

func (p ProfileID) String() string { return string(p) }

// NewProfileID trims id and validates it.
func NewProfileID(id string) (ProfileID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", NewDomainError("shared", "NewProfileID", ErrEmptyValue, "profile ID cannot be empty")
	}
	p := ProfileID(id)
	if !p.IsValid() {
		return "", NewDomainError("shared", "NewProfileID", ErrInvalidID, "profile ID must be alphanumeric with - or _")
	}
	return p, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP and levels
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points. XP only ever grows.
type XP int

// XP awards per action.
const (
	XPSubmit       XP = 3
	XPDailyCheckIn XP = 5
	XPRejected     XP = 1
	XPMission      XP = 2
)

func (x XP) Int() int { return int(x) }

// Add adds a non-negative award. Negative amounts are ignored.
func (x XP) Add(amount XP) XP {
	if amount < 0 {
		return x
	}
	return x + amount
}

// Level represents a profile's level, derived from the number of submissions.
type Level int

const (
	MinLevel Level = 1
	// SubmissionsPerLevel is how many applications it takes to gain one level.
	SubmissionsPerLevel = 10
)

func (l Level) Int() int { return int(l) }

// LevelForSubmissions returns floor(n/SubmissionsPerLevel)+1.
func LevelForSubmissions(n int) Level {
	if n < 0 {
		n = 0
	}
	return Level(n/SubmissionsPerLevel) + MinLevel
}

// SubmissionsIntoLevel returns how many submissions count toward the next level.
func SubmissionsIntoLevel(n int) int {
	if n < 0 {
		return 0
	}
	return n % SubmissionsPerLevel
}

// Title names the level band shown next to the number.
func (l Level) Title() string {
	switch {
	case l < 2:
		return "Novice"
	case l < 4:
		return "Apprentice"
	case l < 6:
		return "Adventurer"
	case l < 10:
		return "Veteran"
	default:
		return "Legend"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quest rarity
// ═══════════════════════════════════════════════════════════════════════════

// Rarity is the 1..5 star rating of a quest card.
type Rarity int

const (
	MinRarity Rarity = 1
	MaxRarity Rarity = 5
)

// IsValid reports 1 <= r <= 5.
func (r Rarity) IsValid() bool {
	return r >= MinRarity && r <= MaxRarity
}

// Stars returns the rarity as a star string.
func (r Rarity) Stars() string {
	if !r.IsValid() {
		return ""
	}
	return strings.Repeat("★", int(r)) + strings.Repeat("☆", int(MaxRarity-r))
}

// ═══════════════════════════════════════════════════════════════════════════
// Time windows
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange is a closed interval [From, To].
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains includes both bounds.
func (t TimeRange) Contains(tm time.Time) bool {
	return !tm.Before(t.From) && !tm.After(t.To)
}

// LastNDays is [now minus n days, now].
func LastNDays(now time.Time, n int) TimeRange {
	return TimeRange{From: now.AddDate(0, 0, -n), To: now}
}
