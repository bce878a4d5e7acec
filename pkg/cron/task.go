package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a job run on a schedule.
type Task interface {
	Name() string
	// Schedule is a five-field cron expression, a descriptor such as
	// "@hourly" or "@every 10m", or one of the named frequencies
	// ("daily", "everyFiveMinutes", "twiceDaily", ...).
	Schedule() string
	Handle(ctx context.Context) error
}

type funcTask struct {
	name     string
	schedule string
	fn       func(ctx context.Context) error
}

func (t funcTask) Name() string                     { return t.name }
func (t funcTask) Schedule() string                 { return t.schedule }
func (t funcTask) Handle(ctx context.Context) error { return t.fn(ctx) }

// NewTask adapts a function to Task.
//
//	cron.NewTask("cleanup", "daily", func(ctx context.Context) error {
//	    return repo.DeleteExpiredSessions(ctx)
//	})
func NewTask(name, schedule string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, schedule: schedule, fn: fn}
}

// frequencies are interval shorthands, in seconds.
var frequencies = map[string]int64{
	"minute":    60,
	"hourly":    3600,
	"daily":     86400,
	"weekly":    86400 * 7,
	"biweekly":  86400 * 14,
	"monthly":   86400 * 365 / 12,
	"quarterly": 86400 * 365 / 4,
	"yearly":    86400 * 365,

	"everyfiveminutes":    300,
	"everytenminutes":     600,
	"everyfifteenminutes": 900,
	"everythirtyminutes":  1800,
	"everyhalfhour":       1800,

	"twicedaily":    43200,
	"thricedaily":   28800,
	"twiceweekly":   86400 * 7 / 2,
	"thriceweekly":  86400 * 7 / 3,
	"twicemonthly":  86400 * 30 / 2,
	"thricemonthly": 86400 * 30 / 3,
	"semiannual":    86400 * 365 / 2,
	"twiceyearly":   86400 * 365 / 2,
	"thriceyearly":  86400 * 365 / 3,
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses the schedule notations a Task may use.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if secs, ok := frequencies[strings.ToLower(spec)]; ok {
		return cron.Every(time.Duration(secs) * time.Second), nil
	}
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	return s, nil
}
