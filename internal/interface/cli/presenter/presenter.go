// Package presenter renders JobQuest read models and events for the terminal.
// Presenters turn query DTOs into tables and sections, and domain events into
// one-line toasts.
package presenter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/pterm/pterm"

	"github.com/jobquest/jobquest/internal/application/query"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

const barWidth = 20

// Presenter writes formatted views to a terminal.
type Presenter struct {
	mu  sync.Mutex
	out io.Writer
	loc *time.Location
}

// New creates a presenter that writes to out and shows dates in loc.
func New(out io.Writer, loc *time.Location) *Presenter {
	if loc == nil {
		loc = time.UTC
	}
	return &Presenter{out: out, loc: loc}
}

func (p *Presenter) write(parts ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range parts {
		fmt.Fprint(p.out, s)
		if !strings.HasSuffix(s, "\n") {
			fmt.Fprintln(p.out)
		}
	}
}

func (p *Presenter) table(header []string, rows [][]string) (string, error) {
	data := pterm.TableData{header}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// Error prints err. Warnings such as a repeated check-in get the softer style.
func (p *Presenter) Error(err error) {
	if err == nil {
		return
	}
	if shared.IsWarning(err) {
		p.write(pterm.Warning.Sprint(err.Error()))
		return
	}
	p.write(pterm.Error.Sprint(err.Error()))
}

// Info prints a neutral message.
func (p *Presenter) Info(format string, args ...any) {
	p.write(pterm.Info.Sprintf(format, args...))
}

// ─────────────────────────────────────────────────────────────────────────────
// DASHBOARD
// ─────────────────────────────────────────────────────────────────────────────

// Dashboard renders the profile summary.
func (p *Presenter) Dashboard(d *query.DashboardDTO) error {
	var sb strings.Builder
	sb.WriteString(pterm.DefaultSection.Sprintf("%s · Level %d %s", d.ProfileID, d.Level, d.LevelTitle))

	fmt.Fprintf(&sb, "XP        %s\n", pterm.Bold.Sprint(humanize.Comma(int64(d.XP))))
	fmt.Fprintf(&sb, "Level     %s %d/%d to level %d\n",
		progressBar(d.SubmissionsIntoLevel, d.SubmissionsPerLevel), d.SubmissionsIntoLevel, d.SubmissionsPerLevel, d.Level+1)
	fmt.Fprintf(&sb, "Applied   %s\n", english.Plural(d.TotalSubmissions, "application", ""))

	checkIn := pterm.Yellow("not checked in today")
	if d.CheckedInToday {
		checkIn = pterm.Green("checked in today")
	}
	fmt.Fprintf(&sb, "Streak    %s (best %d) · %s\n", english.Plural(d.Streak, "day", ""), d.BestStreak, checkIn)
	fmt.Fprintf(&sb, "Badges    %d/%d\n", d.BadgesUnlocked, d.BadgesTotal)
	fmt.Fprintf(&sb, "Saved     %s\n", english.Plural(d.SavedJobs, "job", ""))

	rows := make([][]string, 0, len(d.StatusCounts))
	for _, sc := range d.StatusCounts {
		rows = append(rows, []string{string(sc.Status), fmt.Sprint(sc.Count)})
	}
	pipeline, err := p.table([]string{"Status", "Count"}, rows)
	if err != nil {
		return err
	}
	sb.WriteString(pterm.DefaultSection.WithLevel(2).Sprint("Pipeline"))
	sb.WriteString(pipeline)
	sb.WriteString("\n")

	sb.WriteString(pterm.DefaultSection.WithLevel(2).Sprint("Overdue follow-ups"))
	if len(d.OverdueFollowUps) == 0 {
		sb.WriteString(pterm.Gray("Nothing overdue.") + "\n")
	} else {
		rows = rows[:0]
		for _, fu := range d.OverdueFollowUps {
			rows = append(rows, []string{
				fu.ID,
				fu.Company,
				fu.JobTitle,
				humanize.RelTime(fu.DueDate, d.GeneratedAt, "ago", "from now"),
			})
		}
		overdue, err := p.table([]string{"Follow-up", "Company", "Job", "Due"}, rows)
		if err != nil {
			return err
		}
		sb.WriteString(overdue)
	}

	p.write(sb.String())
	return nil
}

func progressBar(n, total int) string {
	if total <= 0 {
		total = shared.SubmissionsPerLevel
	}
	filled := n * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}
	return pterm.Green(strings.Repeat("█", filled)) + pterm.Gray(strings.Repeat("░", barWidth-filled))
}

// ─────────────────────────────────────────────────────────────────────────────
// QUEST LOG
// ─────────────────────────────────────────────────────────────────────────────

// QuestLog renders applications and saved jobs as of now.
func (p *Presenter) QuestLog(l *query.QuestLogDTO, now time.Time) error {
	var sb strings.Builder

	sb.WriteString(pterm.DefaultSection.Sprintf("Applications (%d)", len(l.Applications)))
	if len(l.Applications) == 0 {
		sb.WriteString(pterm.Gray("No applications yet. Submit a quest to get started.") + "\n")
	} else {
		rows := make([][]string, 0, len(l.Applications))
		for _, a := range l.Applications {
			next := "-"
			if a.NextFollowUp != nil {
				next = a.NextFollowUp.ID + " " + humanize.RelTime(a.NextFollowUp.DueDate, now, "ago", "from now")
			}
			rows = append(rows, []string{
				a.JobID,
				a.JobTitle,
				a.Company,
				colorStatus(a.Status),
				a.SubmittedAt.In(p.loc).Format("2006-01-02"),
				next,
				fmt.Sprintf("%d/%d", a.FollowUpsDone, a.FollowUpsTotal),
			})
		}
		out, err := p.table([]string{"ID", "Job", "Company", "Status", "Submitted", "Next follow-up", "Done"}, rows)
		if err != nil {
			return err
		}
		sb.WriteString(out)
	}

	sb.WriteString(pterm.DefaultSection.Sprintf("Saved (%d)", len(l.SavedJobs)))
	if len(l.SavedJobs) > 0 {
		rows := make([][]string, 0, len(l.SavedJobs))
		for _, j := range l.SavedJobs {
			rows = append(rows, []string{j.ID, j.Emoji + " " + j.Title, j.Company, j.Location, j.Rarity.Stars()})
		}
		out, err := p.table([]string{"ID", "Job", "Company", "Location", "Rarity"}, rows)
		if err != nil {
			return err
		}
		sb.WriteString(out)
	}
	for _, id := range l.MissingSaved {
		sb.WriteString(pterm.Warning.Sprintf("saved job %s is missing from the catalog", id) + "\n")
	}

	p.write(sb.String())
	return nil
}

func colorStatus(s progress.Status) string {
	switch s {
	case progress.StatusOffer, progress.StatusHired:
		return pterm.Green(string(s))
	case progress.StatusInterview, progress.StatusInReview:
		return pterm.Cyan(string(s))
	case progress.StatusRejected, progress.StatusNoResponse:
		return pterm.Gray(string(s))
	default:
		return string(s)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// MISSIONS AND BADGES
// ─────────────────────────────────────────────────────────────────────────────

// Missions renders today's mission board.
func (p *Presenter) Missions(b *query.MissionsBoardDTO) error {
	rows := make([][]string, 0, len(b.Missions))
	for _, m := range b.Missions {
		mark := "[ ]"
		if m.Done {
			mark = pterm.Green("[x]")
		}
		rows = append(rows, []string{mark, m.ID, m.Name, fmt.Sprintf("+%d XP", m.XP)})
	}
	out, err := p.table([]string{"", "ID", "Mission", "Reward"}, rows)
	if err != nil {
		return err
	}

	footer := fmt.Sprintf("%d/%d done", b.Done, len(b.Missions))
	if b.AllDone {
		footer = pterm.Success.Sprint("All missions complete for today!")
	}
	p.write(pterm.DefaultSection.Sprintf("Daily missions · %s", b.Day), out, footer)
	return nil
}

// Badges renders the badge gallery.
func (p *Presenter) Badges(g *query.BadgeGalleryDTO) error {
	rows := make([][]string, 0, len(g.Badges))
	for _, b := range g.Badges {
		state := pterm.Gray("locked")
		icon := "🔒"
		if b.Unlocked {
			state = pterm.Green("unlocked")
			icon = b.Icon
		}
		rows = append(rows, []string{icon, b.Name, b.Description, state})
	}
	out, err := p.table([]string{"", "Badge", "How to earn", ""}, rows)
	if err != nil {
		return err
	}
	p.write(pterm.DefaultSection.Sprintf("Badges %d/%d", g.Unlocked, g.Total), out)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// PROFILES
// ─────────────────────────────────────────────────────────────────────────────

// Profiles renders the profile registry, marking the active one.
func (p *Presenter) Profiles(reg quest.Registry) error {
	active, _ := reg.Active()
	rows := make([][]string, 0, len(reg.Profiles))
	for _, pr := range reg.Profiles {
		mark := ""
		if pr.ID == active.ID {
			mark = pterm.Green("*")
		}
		remote := ""
		if pr.Preferences.RemoteOnly {
			remote = "remote"
		}
		rows = append(rows, []string{mark, pr.ID.String(), pr.Name, remote, strings.Join(pr.Preferences.Keywords, ", ")})
	}
	out, err := p.table([]string{"", "ID", "Name", "", "Keywords"}, rows)
	if err != nil {
		return err
	}
	p.write(out)
	return nil
}

// Job prints a one-line confirmation for an added job.
func (p *Presenter) Job(id string, action quest.Action) {
	p.write(pterm.Info.Sprintf("job %s %s", id, action))
}
