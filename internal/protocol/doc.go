// Package protocol defines the wire messages exchanged with the game server.
//
// Every frame is one JSON object whose "action" field selects the variant:
//   - ClientMessage: frames the client sends (CreateGame, JoinGame, ...)
//   - ServerMessage: frames the server pushes (RoomCreated, RoomInfo, ...)
//
// The discriminant lives only on the wire. Go payload types carry the
// variant fields alone, so a decoded value never has a leftover action key.
package protocol
