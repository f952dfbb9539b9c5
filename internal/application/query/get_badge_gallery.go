package query

import (
	"context"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// BadgeDTO is one badge in the gallery.
type BadgeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// BadgeGalleryDTO lists every badge in registry order.
type BadgeGalleryDTO struct {
	Badges   []BadgeDTO `json:"badges"`
	Unlocked int        `json:"unlocked"`
	Total    int        `json:"total"`
}

// GetBadgeGalleryHandler handles badge gallery queries.
type GetBadgeGalleryHandler struct {
	base
}

// NewGetBadgeGalleryHandler creates a new handler.
func NewGetBadgeGalleryHandler(reader SnapshotReader, eng *engine.Engine, clock timeutil.Clock) *GetBadgeGalleryHandler {
	return &GetBadgeGalleryHandler{base: newBase(reader, eng, clock)}
}

// Handle executes the query.
func (h *GetBadgeGalleryHandler) Handle(ctx context.Context, q ProfileQuery) (*BadgeGalleryDTO, error) {
	snap, _, err := h.load(ctx, q)
	if err != nil {
		return nil, err
	}

	defs := h.engine.Badges().All()
	out := &BadgeGalleryDTO{Badges: make([]BadgeDTO, 0, len(defs)), Total: len(defs)}
	for _, d := range defs {
		unlocked := snap.State.HasBadge(d.ID)
		if unlocked {
			out.Unlocked++
		}
		out.Badges = append(out.Badges, BadgeDTO{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Unlocked:    unlocked,
		})
	}
	return out, nil
}
