// Package scheduler re-runs analyses on a cron schedule. Specs use six
// fields with seconds first, e.g. "0 0 */6 * * *" for every six hours.
package scheduler
