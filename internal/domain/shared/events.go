package shared

import (
	"encoding/json"
	"time"
)

// EventType names an event. Commands return events alongside the new state
// and the dispatcher publishes them once that state is saved.
type EventType string

const (
	EventXPGained       EventType = "progress.xp_gained"
	EventLevelUp        EventType = "progress.level_up"
	EventStreakUpdated  EventType = "progress.streak_updated"
	EventStreakBroken   EventType = "progress.streak_broken"
	EventBadgeUnlocked  EventType = "progress.badge_unlocked"
	EventMissionDone    EventType = "progress.mission_completed"
	EventMissionsReset  EventType = "progress.missions_reset"
	EventProfileReset   EventType = "progress.profile_reset"
	EventCommandWarning EventType = "progress.warning"

	EventQuestSaved           EventType = "quest.saved"
	EventQuestSubmitted       EventType = "quest.submitted"
	EventFirstSubmissionToday EventType = "quest.first_submission_today"
	EventQuestRemoved         EventType = "quest.removed"

	EventApplicationUpdated EventType = "application.updated"
	EventStatusChanged      EventType = "application.status_changed"

	EventFollowUpCompleted EventType = "followup.completed"
	EventFollowUpSnoozed   EventType = "followup.snoozed"
	EventFollowUpDue       EventType = "followup.due"

	EventProfileCreated  EventType = "profile.created"
	EventProfileSwitched EventType = "profile.switched"
)

// Event is something that happened to one profile.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time

	// AggregateID is the profile the event belongs to.
	AggregateID() string

	// Payload is the event-specific data, keyed by JSON field name.
	Payload() map[string]any
}

// BaseEvent carries the fields every event has. Embed it.
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Profile   string    `json:"aggregate_id"`
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Profile }

// NewBaseEvent stamps an event with the command's clock reading.
func NewBaseEvent(eventType EventType, profileID string, at time.Time) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: at, Profile: profileID}
}

// payloadOf renders an event struct through its JSON tags and drops the
// BaseEvent keys. Numbers come back as float64.
func payloadOf(v any) map[string]any {
	out := map[string]any{}
	data, err := json.Marshal(v)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	delete(out, "type")
	delete(out, "timestamp")
	delete(out, "aggregate_id")
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent reports an XP award. Source is check_in, submit, mission,
// follow_up or rejected.
type XPGainedEvent struct {
	BaseEvent
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"`
	RefID    string `json:"ref_id,omitempty"`
}

func (e XPGainedEvent) Payload() map[string]any { return payloadOf(e) }

func NewXPGainedEvent(profileID string, at time.Time, amount, newTotal int, source, refID string) XPGainedEvent {
	return XPGainedEvent{NewBaseEvent(EventXPGained, profileID, at), amount, newTotal, source, refID}
}

// LevelUpEvent reports the submission count crossing a level boundary.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

func (e LevelUpEvent) Payload() map[string]any { return payloadOf(e) }

func NewLevelUpEvent(profileID string, at time.Time, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{NewBaseEvent(EventLevelUp, profileID, at), oldLevel, newLevel}
}

// StreakUpdatedEvent follows every accepted check-in.
type StreakUpdatedEvent struct {
	BaseEvent
	Streak     int `json:"streak"`
	BestStreak int `json:"best_streak"`
}

func (e StreakUpdatedEvent) Payload() map[string]any { return payloadOf(e) }

func NewStreakUpdatedEvent(profileID string, at time.Time, streak, best int) StreakUpdatedEvent {
	return StreakUpdatedEvent{NewBaseEvent(EventStreakUpdated, profileID, at), streak, best}
}

// StreakBrokenEvent reports a check-in that restarted the streak after a gap.
type StreakBrokenEvent struct {
	BaseEvent
	PreviousStreak int `json:"previous_streak"`
	DaysMissed     int `json:"days_missed"`
}

func (e StreakBrokenEvent) Payload() map[string]any { return payloadOf(e) }

func NewStreakBrokenEvent(profileID string, at time.Time, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{NewBaseEvent(EventStreakBroken, profileID, at), previousStreak, daysMissed}
}

// BadgeUnlockedEvent fires once per badge.
type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID string `json:"badge_id"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
}

func (e BadgeUnlockedEvent) Payload() map[string]any { return payloadOf(e) }

func NewBadgeUnlockedEvent(profileID string, at time.Time, badgeID, name, icon string) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{NewBaseEvent(EventBadgeUnlocked, profileID, at), badgeID, name, icon}
}

type MissionCompletedEvent struct {
	BaseEvent
	MissionID string `json:"mission_id"`
	XPEarned  int    `json:"xp_earned"`
}

func (e MissionCompletedEvent) Payload() map[string]any { return payloadOf(e) }

func NewMissionCompletedEvent(profileID string, at time.Time, missionID string, xp int) MissionCompletedEvent {
	return MissionCompletedEvent{NewBaseEvent(EventMissionDone, profileID, at), missionID, xp}
}

// MissionsResetEvent reports the mission board being cleared for Day (YYYY-MM-DD).
type MissionsResetEvent struct {
	BaseEvent
	Day string `json:"day"`
}

func (e MissionsResetEvent) Payload() map[string]any { return payloadOf(e) }

func NewMissionsResetEvent(profileID string, at time.Time, day string) MissionsResetEvent {
	return MissionsResetEvent{NewBaseEvent(EventMissionsReset, profileID, at), day}
}

// WarningEvent explains a command that was refused without changing state.
type WarningEvent struct {
	BaseEvent
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e WarningEvent) Payload() map[string]any { return payloadOf(e) }

func NewWarningEvent(profileID string, at time.Time, code, message string) WarningEvent {
	return WarningEvent{NewBaseEvent(EventCommandWarning, profileID, at), code, message}
}

type ProfileResetEvent struct {
	BaseEvent
}

func (e ProfileResetEvent) Payload() map[string]any { return map[string]any{} }

func NewProfileResetEvent(profileID string, at time.Time) ProfileResetEvent {
	return ProfileResetEvent{NewBaseEvent(EventProfileReset, profileID, at)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quests, applications and follow-ups
// ═══════════════════════════════════════════════════════════════════════════

// QuestEvent covers the catalog and submission changes of one job.
type QuestEvent struct {
	BaseEvent
	JobID   string `json:"job_id"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

func (e QuestEvent) Payload() map[string]any { return payloadOf(e) }

func NewQuestEvent(eventType EventType, profileID string, at time.Time, jobID, title, company string) QuestEvent {
	return QuestEvent{NewBaseEvent(eventType, profileID, at), jobID, title, company}
}

type StatusChangedEvent struct {
	BaseEvent
	JobID     string `json:"job_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

func (e StatusChangedEvent) Payload() map[string]any { return payloadOf(e) }

func NewStatusChangedEvent(profileID string, at time.Time, jobID, oldStatus, newStatus string) StatusChangedEvent {
	return StatusChangedEvent{NewBaseEvent(EventStatusChanged, profileID, at), jobID, oldStatus, newStatus}
}

// FollowUpEvent covers a follow-up being completed, snoozed or falling due.
type FollowUpEvent struct {
	BaseEvent
	JobID        string     `json:"job_id"`
	FollowUpID   string     `json:"follow_up_id"`
	Company      string     `json:"company,omitempty"`
	DueDate      time.Time  `json:"due_date"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
}

func (e FollowUpEvent) Payload() map[string]any { return payloadOf(e) }

func NewFollowUpEvent(eventType EventType, profileID string, at time.Time, jobID, followUpID, company string, due time.Time, snoozedUntil *time.Time) FollowUpEvent {
	return FollowUpEvent{NewBaseEvent(eventType, profileID, at), jobID, followUpID, company, due, snoozedUntil}
}

// ProfileEvent covers a profile being created or switched to.
type ProfileEvent struct {
	BaseEvent
	Name string `json:"name"`
}

func (e ProfileEvent) Payload() map[string]any { return payloadOf(e) }

func NewProfileEvent(eventType EventType, profileID string, at time.Time, name string) ProfileEvent {
	return ProfileEvent{NewBaseEvent(eventType, profileID, at), name}
}

// ═══════════════════════════════════════════════════════════════════════════
// Transport
// ═══════════════════════════════════════════════════════════════════════════

// EnvelopeVersion is bumped when the envelope layout changes.
const EnvelopeVersion = 1

// EventEnvelope is an event flattened for the wire.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Version     int             `json:"version"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEventEnvelope encodes event's payload under id.
func NewEventEnvelope(id string, event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		ID:          id,
		Version:     EnvelopeVersion,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Payload:     payload,
	}, nil
}

// EventHandler handles one event. Errors are logged by the bus, never
// returned to the publisher.
type EventHandler func(event Event) error

type EventPublisher interface {
	Publish(event Event) error
}

type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus is what the dispatcher publishes to and the UI listens on.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
