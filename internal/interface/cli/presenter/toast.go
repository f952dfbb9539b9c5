package presenter

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/pterm/pterm"

	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOASTS
// One line per event, printed as the dispatcher publishes. Subscribe Toast to
// the event bus with SubscribeAll.
// ══════════════════════════════════════════════════════════════════════════════

// Toast prints a short notice for ev. Events with nothing to tell the user,
// such as the silent daily mission reset, print nothing.
func (p *Presenter) Toast(ev shared.Event) error {
	if line := FormatToast(ev); line != "" {
		p.write(line)
	}
	return nil
}

// FormatToast returns the toast line for ev, or "" when ev is silent.
func FormatToast(ev shared.Event) string {
	switch e := ev.(type) {
	case shared.XPGainedEvent:
		return pterm.Success.Sprintf("+%d XP · %s total", e.Amount, humanize.Comma(int64(e.NewTotal)))

	case shared.LevelUpEvent:
		return pterm.Success.Sprintf("LEVEL UP! Level %d → %d · %s", e.OldLevel, e.NewLevel, shared.Level(e.NewLevel).Title())

	case shared.StreakUpdatedEvent:
		return pterm.Info.Sprintf("🔥 Streak %s (best %d)", english.Plural(e.Streak, "day", ""), e.BestStreak)

	case shared.StreakBrokenEvent:
		return pterm.Warning.Sprintf("Your %d-day streak ended after %s away", e.PreviousStreak, english.Plural(e.DaysMissed, "day", ""))

	case shared.BadgeUnlockedEvent:
		return pterm.Success.Sprintf("%s Badge unlocked: %s", e.Icon, e.Name)

	case shared.MissionCompletedEvent:
		return pterm.Success.Sprintf("Mission %s complete", e.MissionID)

	case shared.WarningEvent:
		return pterm.Warning.Sprint(e.Message)

	case shared.ProfileResetEvent:
		return pterm.Info.Sprintf("Profile %s reset", e.AggregateID())

	case shared.QuestEvent:
		return questToast(e)

	case shared.StatusChangedEvent:
		return pterm.Info.Sprintf("%s: %s → %s", e.JobID, e.OldStatus, e.NewStatus)

	case shared.FollowUpEvent:
		return followUpToast(e)

	case shared.ProfileEvent:
		if e.EventType() == shared.EventProfileCreated {
			return pterm.Success.Sprintf("Profile %s (%s) created", e.Name, e.AggregateID())
		}
		return pterm.Info.Sprintf("Now playing as %s", e.Name)
	}
	return ""
}

func questToast(e shared.QuestEvent) string {
	label := e.Title
	if e.Company != "" {
		label = fmt.Sprintf("%s at %s", e.Title, e.Company)
	}
	switch e.EventType() {
	case shared.EventQuestSaved:
		return pterm.Info.Sprintf("Saved %s [%s]", label, e.JobID)
	case shared.EventQuestSubmitted:
		return pterm.Success.Sprintf("Submitted %s", label)
	case shared.EventFirstSubmissionToday:
		return pterm.Success.Sprint("First application of the day!")
	case shared.EventQuestRemoved:
		return pterm.Info.Sprintf("Removed %s", label)
	}
	return ""
}

func followUpToast(e shared.FollowUpEvent) string {
	switch e.EventType() {
	case shared.EventFollowUpCompleted:
		return pterm.Success.Sprintf("Followed up with %s (%s)", e.Company, e.FollowUpID)
	case shared.EventFollowUpSnoozed:
		if e.SnoozedUntil == nil {
			return pterm.Info.Sprintf("Snoozed %s", e.FollowUpID)
		}
		return pterm.Info.Sprintf("Snoozed %s until %s", e.FollowUpID, e.SnoozedUntil.Format("Mon Jan 2"))
	case shared.EventFollowUpDue:
		return pterm.Warning.Sprintf("Follow up with %s: %s was due %s",
			e.Company, e.FollowUpID, humanize.RelTime(e.DueDate, e.OccurredAt(), "ago", "from now"))
	}
	return ""
}
