// Package cron runs scheduled tasks for relay apps.
//
// A Scheduler keeps the last run time of every task in a cache.Cache, so
// several replicas sharing a cache.Redis agree on what already ran. Due
// tasks run either on an in-process ticker (Start/Stop, built on
// github.com/robfig/cron) or when an external trigger calls RunDue. relay
// wires the latter to requests carrying the cron marker query parameter:
//
//	curl 'https://example.com/?_cron'          # run due tasks
//	curl 'https://example.com/cleanup?_cron'   # run the "cleanup" task now
//
// Schedules accept five-field cron expressions, descriptors ("@daily",
// "@every 90s") and named frequencies ("hourly", "everyFiveMinutes",
// "twiceDaily", ...).
package cron
