package protocol

// ClientAction is the discriminant of an outbound frame.
type ClientAction string

const (
	ActionCreateGame  ClientAction = "CreateGame"
	ActionJoinGame    ClientAction = "JoinGame"
	ActionLeaveGame   ClientAction = "LeaveGame"
	ActionGetRoomInfo ClientAction = "GetRoomInfo"
	ActionKick        ClientAction = "Kick"
	ActionChangeRole  ClientAction = "ChangeRole"
)

// AllClientActions returns every outbound discriminant.
func AllClientActions() []ClientAction {
	return []ClientAction{
		ActionCreateGame,
		ActionJoinGame,
		ActionLeaveGame,
		ActionGetRoomInfo,
		ActionKick,
		ActionChangeRole,
	}
}

// ClientMessage is a frame sent by the client. The set of implementations is
// closed: only the types in this file satisfy it.
type ClientMessage interface {
	Action() ClientAction
	isClientMessage()
}

// CreateGame asks the server to open a new room hosted by PlayerName.
type CreateGame struct {
	PlayerName string `json:"player_name"`
}

// JoinGame asks to add PlayerName to an existing room.
type JoinGame struct {
	PlayerName string `json:"player_name"`
	RoomCode   string `json:"room_code"`
}

// LeaveGame removes PlayerName from a room.
type LeaveGame struct {
	PlayerName string `json:"player_name"`
	RoomCode   string `json:"room_code"`
}

// GetRoomInfo requests the current RoomInfo for a room.
type GetRoomInfo struct {
	RoomCode string `json:"room_code"`
}

// Kick removes another player from the room (host only, enforced server side).
type Kick struct {
	PlayerName string `json:"player_name"`
	RoomCode   string `json:"room_code"`
}

// ChangeRole sets how many copies of a role are in play.
// Role uses the server spelling (no underscores), e.g. "AlphaWolf".
type ChangeRole struct {
	Role     string `json:"role"`
	RoomCode string `json:"room_code"`
	Count    int64  `json:"count"`
}

func (CreateGame) Action() ClientAction  { return ActionCreateGame }
func (JoinGame) Action() ClientAction    { return ActionJoinGame }
func (LeaveGame) Action() ClientAction   { return ActionLeaveGame }
func (GetRoomInfo) Action() ClientAction { return ActionGetRoomInfo }
func (Kick) Action() ClientAction        { return ActionKick }
func (ChangeRole) Action() ClientAction  { return ActionChangeRole }

func (CreateGame) isClientMessage()  {}
func (JoinGame) isClientMessage()    {}
func (LeaveGame) isClientMessage()   {}
func (GetRoomInfo) isClientMessage() {}
func (Kick) isClientMessage()        {}
func (ChangeRole) isClientMessage()  {}
