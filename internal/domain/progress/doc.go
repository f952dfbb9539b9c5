// Package progress contains the progression half of the JobQuest domain.
//
// It defines:
//
//   - GameState: XP, level, streaks, daily missions, badges, applications and saved jobs
//   - Application and Status: a submission and its lifecycle
//   - Mission: the fixed daily mission board
//   - Snapshot, Repository and ProfileRepository: the storage contract
//
// # Rules
//
// XP only grows. The level is derived, never stored independently:
//
//	level = floor(len(applications) / 10) + 1
//
// Streaks follow calendar days in the configured location. A check-in on the
// day after the previous one extends the streak; any longer gap restarts it.
//
// All GameState methods are pure. They return an updated copy and leave the
// receiver untouched, so a failed command can simply discard its work.
package progress
