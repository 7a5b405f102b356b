// Package tasks orchestrates playlist creation with real-time progress reporting.
//
// # Orchestration
//
// [PlaylistEngine.Run] is a linear state machine over a [services.Provider]:
//
//  1. Fetch the token owner's profile; a missing profile fails with "could not fetch profile".
//  2. Create a private playlist named "8th Grade Jams (<year>)"; no ID fails with "could not create playlist".
//  3. Search every song as "<title> <artist>" in list order, skipping songs without a match.
//  4. With no matches the run fails with "none of these songs found" and tracks are never added.
//  5. Add all matches in one request; a rejection fails with "add tracks failed".
//
// A playlist created before a later failure is not deleted. Its ID remains on the [RunResult] and in
// the run history so it can be found afterwards.
//
// # Track resolution
//
// Searches run sequentially by default. [EngineOpts.Workers] above one fans them out to a bounded worker
// pool and [EngineOpts.RateLimit] paces them with a token bucket. Matches keep the order of the song list
// in either mode.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI
// rendering. Updates use select with default to prevent blocking.
//
// # Run history
//
// The optional [RunRecorder] (repositories.RunRepository) stores every transition. Recorder errors are
// logged and ignored.
package tasks
