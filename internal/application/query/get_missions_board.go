package query

import (
	"context"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// MissionDTO is one daily mission with its completion flag.
type MissionDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	XP   int    `json:"xp"`
	Done bool   `json:"done"`
}

// MissionsBoardDTO is today's mission board.
type MissionsBoardDTO struct {
	Day      string       `json:"day"`
	Missions []MissionDTO `json:"missions"`
	Done     int          `json:"done"`
	AllDone  bool         `json:"all_done"`
}

// GetMissionsBoardHandler handles missions board queries.
type GetMissionsBoardHandler struct {
	base
}

// NewGetMissionsBoardHandler creates a new handler.
func NewGetMissionsBoardHandler(reader SnapshotReader, eng *engine.Engine, clock timeutil.Clock) *GetMissionsBoardHandler {
	return &GetMissionsBoardHandler{base: newBase(reader, eng, clock)}
}

// Handle executes the query. A board last reset on an earlier day is shown
// cleared, the way the next command will see it.
func (h *GetMissionsBoardHandler) Handle(ctx context.Context, q ProfileQuery) (*MissionsBoardDTO, error) {
	snap, now, err := h.load(ctx, q)
	if err != nil {
		return nil, err
	}

	day := h.engine.Day(now)
	state, _ := snap.State.ResetMissions(day)

	missions := progress.DailyMissions()
	out := &MissionsBoardDTO{Day: day, Missions: make([]MissionDTO, 0, len(missions))}
	for _, m := range missions {
		done := state.IsMissionDone(m.ID)
		if done {
			out.Done++
		}
		out.Missions = append(out.Missions, MissionDTO{ID: m.ID, Name: m.Name, XP: m.XP.Int(), Done: done})
	}
	out.AllDone = out.Done == len(missions)
	return out, nil
}
