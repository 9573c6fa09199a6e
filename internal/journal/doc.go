// Package journal persists the frames a session sends and receives.
//
// Frames are buffered in memory and written in batches by a background
// writer, so recording never blocks the session. Storage is SQLite by
// default, or PostgreSQL for shared deployments.
package journal
