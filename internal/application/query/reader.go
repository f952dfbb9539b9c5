// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// SnapshotReader loads a profile's stored snapshot. The command Dispatcher
// implements it so reads queue behind in-flight writes of the same profile.
type SnapshotReader interface {
	Snapshot(ctx context.Context, profileID shared.ProfileID) (progress.Snapshot, error)
}

// ProfileQuery identifies the profile a read targets.
type ProfileQuery struct {
	ProfileID string
}

// Validate checks the profile id.
func (q ProfileQuery) Validate() (shared.ProfileID, error) {
	return shared.NewProfileID(q.ProfileID)
}

// base carries the collaborators every handler needs.
type base struct {
	reader SnapshotReader
	engine *engine.Engine
	clock  timeutil.Clock
}

func newBase(reader SnapshotReader, eng *engine.Engine, clock timeutil.Clock) base {
	if eng == nil {
		eng = engine.New(engine.DefaultConfig())
	}
	if clock == nil {
		clock = timeutil.SystemClock{Location: eng.Config().Location}
	}
	return base{reader: reader, engine: eng, clock: clock}
}

func (b base) load(ctx context.Context, q ProfileQuery) (progress.Snapshot, time.Time, error) {
	id, err := q.Validate()
	if err != nil {
		return progress.Snapshot{}, time.Time{}, fmt.Errorf("invalid query: %w", err)
	}
	snap, err := b.reader.Snapshot(ctx, id)
	if err != nil {
		return progress.Snapshot{}, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, b.clock.Now(), nil
}

func (b base) location() *time.Location {
	return b.engine.Config().Location
}
