// Package router implements the Action Router component.
//
// The Action Router:
//   - Keys registrations by (server action, subscriber id)
//   - Keeps at most one handler per pair; re-registering replaces it
//   - Fans each decoded message out to every subscriber of its action
//   - Tolerates handlers that subscribe or unsubscribe during dispatch
package router
