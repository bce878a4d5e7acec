package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/relay/pkg/cron"
)

// CronDispatcher serves requests that carry the cron marker query
// parameter. Such requests skip the controller dispatch entirely.
type CronDispatcher interface {
	ServeCron(c Context) error
}

// CronDispatcherFunc adapts a function to CronDispatcher.
type CronDispatcherFunc func(c Context) error

func (f CronDispatcherFunc) ServeCron(c Context) error {
	return f(c)
}

// CronResult is the JSON body of a cron request.
type CronResult struct {
	Ran   []string `json:"ran"`
	Error string   `json:"error,omitempty"`
}

// schedulerDispatcher runs the task named by the first route segment, or
// every due task when the route names none.
type schedulerDispatcher struct {
	scheduler *cron.Scheduler
}

func (d *schedulerDispatcher) ServeCron(c Context) error {
	var (
		res CronResult
		err error
	)

	segs := segments(c.Route())
	if len(segs) > 0 && d.scheduler.Has(segs[0]) {
		res.Ran = []string{segs[0]}
		err = d.scheduler.RunTask(c, segs[0])
	} else {
		res.Ran, err = d.scheduler.RunDue(c, time.Now())
	}
	if res.Ran == nil {
		res.Ran = []string{}
	}

	if err != nil {
		c.LogError("cron run failed", slog.Any("ran", res.Ran), slog.String("error", err.Error()))
		res.Error = err.Error()
		return c.JSON(http.StatusInternalServerError, res)
	}

	c.LogInfo("cron run finished", slog.Any("ran", res.Ran))
	return c.JSON(http.StatusOK, res)
}
