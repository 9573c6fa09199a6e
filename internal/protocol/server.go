package protocol

// ServerAction is the discriminant of an inbound frame.
type ServerAction string

const (
	ActionRoomCreated      ServerAction = "RoomCreated"
	ActionPlayerJoined     ServerAction = "PlayerJoined"
	ActionRoomDoesNotExist ServerAction = "RoomDoesNotExist"
	ActionRoomExists       ServerAction = "RoomExists"
	ActionPlayerExists     ServerAction = "PlayerExists"
	ActionKicked           ServerAction = "Kicked"
	ActionRoomInfo         ServerAction = "RoomInfo"
)

// AllServerActions returns every inbound discriminant the client understands.
func AllServerActions() []ServerAction {
	return []ServerAction{
		ActionRoomCreated,
		ActionPlayerJoined,
		ActionRoomDoesNotExist,
		ActionRoomExists,
		ActionPlayerExists,
		ActionKicked,
		ActionRoomInfo,
	}
}

// ServerMessage is a decoded frame pushed by the server.
type ServerMessage interface {
	Action() ServerAction
	isServerMessage()
}

// RoomCreated answers CreateGame with the new room's code.
type RoomCreated struct {
	RoomCode string `json:"room_code"`
}

// PlayerJoined announces a player entering the room.
type PlayerJoined struct {
	PlayerName string `json:"player_name"`
}

// RoomDoesNotExist answers JoinGame or GetRoomInfo for an unknown code.
type RoomDoesNotExist struct{}

// RoomExists answers a successful JoinGame.
type RoomExists struct{}

// PlayerExists answers JoinGame when the name is already taken in the room.
type PlayerExists struct{}

// Kicked tells this client the host removed it.
type Kicked struct{}

// RoomInfo is the full room state. Roles is keyed by server role spelling.
type RoomInfo struct {
	Players []string         `json:"players"`
	Host    string           `json:"host"`
	Roles   map[string]int64 `json:"roles"`
}

func (RoomCreated) Action() ServerAction      { return ActionRoomCreated }
func (PlayerJoined) Action() ServerAction     { return ActionPlayerJoined }
func (RoomDoesNotExist) Action() ServerAction { return ActionRoomDoesNotExist }
func (RoomExists) Action() ServerAction       { return ActionRoomExists }
func (PlayerExists) Action() ServerAction     { return ActionPlayerExists }
func (Kicked) Action() ServerAction           { return ActionKicked }
func (RoomInfo) Action() ServerAction         { return ActionRoomInfo }

func (RoomCreated) isServerMessage()      {}
func (PlayerJoined) isServerMessage()     {}
func (RoomDoesNotExist) isServerMessage() {}
func (RoomExists) isServerMessage()       {}
func (PlayerExists) isServerMessage()     {}
func (Kicked) isServerMessage()           {}
func (RoomInfo) isServerMessage()         {}
