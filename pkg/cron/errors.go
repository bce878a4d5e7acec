package cron

import "errors"

var (
	ErrUnknownTask     = errors.New("cron: unknown task")
	ErrDuplicateTask   = errors.New("cron: task already registered")
	ErrInvalidTask     = errors.New("cron: invalid task")
	ErrInvalidSchedule = errors.New("cron: invalid schedule")
	ErrTaskPanic       = errors.New("cron: task panicked")
	ErrAlreadyStarted  = errors.New("cron: already started")
)
