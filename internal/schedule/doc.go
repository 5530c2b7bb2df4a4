// Package schedule sends configured notices on cron or interval schedules.
//
// Schedules come from config and are replaced wholesale on reload with Apply.
// Each tick is one dispatch through the telegram channel; failures are
// reported by the channel like any other send.
package schedule
