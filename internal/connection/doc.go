// Package connection owns the single WebSocket connection to the game
// server.
//
// A Session:
//   - Dials one transport on Connect and never reconnects on its own
//   - Decodes inbound frames in arrival order and hands them to the router
//   - Drives the status tracker on open and close
//   - Drops outbound sends while the transport is not open
//
// Callers that need a send to be delivered gate it with WhenReady.
package connection
