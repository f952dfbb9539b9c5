package progress

import (
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// Mission is a daily repeatable task worth a fixed XP award.
type Mission struct {
	ID   string
	Name string
	XP   shared.XP
}

// Mission ids.
const (
	MissionCheckLinkedIn       = "check_linkedin"
	MissionCheckIndeed         = "check_indeed"
	MissionUpdateResume        = "update_resume"
	MissionConnectProfessional = "connect_professional"
	MissionSendFollowUp        = "send_followup"
)

var dailyMissions = []Mission{
	{ID: MissionCheckLinkedIn, Name: "Check LinkedIn for new roles", XP: shared.XPMission},
	{ID: MissionCheckIndeed, Name: "Check Indeed for new roles", XP: shared.XPMission},
	{ID: MissionUpdateResume, Name: "Update Resume/Profile", XP: shared.XPMission},
	{ID: MissionConnectProfessional, Name: "Connect with 1 Professional", XP: shared.XPMission},
	{ID: MissionSendFollowUp, Name: "Send 1 Follow-up", XP: shared.XPMission},
}

// DailyMissions returns the fixed mission board in display order.
func DailyMissions() []Mission {
	out := make([]Mission, len(dailyMissions))
	copy(out, dailyMissions)
	return out
}

// FindMission returns the mission with the given id.
func FindMission(id string) (Mission, bool) {
	for _, m := range dailyMissions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}
