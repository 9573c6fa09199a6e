// Package model defines the game-level types the client presents to its
// consumers, on top of the raw wire messages in package protocol.
//
// Conventions:
//   - Roles: Role values use the identifier spelling (e.g. "Alpha_Wolf")
//   - Server spelling drops underscores ("AlphaWolf"); display spelling
//     replaces them with spaces ("Alpha Wolf")
//   - Role counts: int64, matching the server
package model
