package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronSchedule is a standard five-field cron expression evaluated in a
// fixed location.
type CronSchedule struct {
	spec     string
	location *time.Location
	schedule cron.Schedule
}

// ParseCron parses a five-field cron spec ("0 9 * * *") or a descriptor
// such as "@daily" or "@every 1h".
func ParseCron(spec string, loc *time.Location) (*CronSchedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCron, spec, err)
	}
	return &CronSchedule{spec: spec, location: loc, schedule: sched}, nil
}

// MustParseCron is ParseCron for specs known at compile time.
func MustParseCron(spec string, loc *time.Location) *CronSchedule {
	s, err := ParseCron(spec, loc)
	if err != nil {
		panic(err)
	}
	return s
}

// Next returns the first activation strictly after t.
func (c *CronSchedule) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.location))
}

// String returns the expression as given.
func (c *CronSchedule) String() string {
	return c.spec
}

// ErrInvalidCron is returned for unparsable cron specs.
var ErrInvalidCron = errors.New("invalid cron expression")
