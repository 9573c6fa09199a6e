package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors
var (
	ErrMalformed      = errors.New("malformed frame")
	ErrUnknownAction  = errors.New("unknown action")
	ErrUnsupported    = errors.New("unsupported message type")
	ErrMissingAction  = errors.New("missing action")
	errNilClientFrame = errors.New("nil client message")
)

// envelope is used for discriminant extraction before the full decode.
type envelope struct {
	Action *string `json:"action"`
}

// Encode serializes a client message into a single text frame.
// The action field is written first, followed by the variant fields.
// Messages must be passed by value.
func Encode(msg ClientMessage) ([]byte, error) {
	var frame any

	switch m := msg.(type) {
	case CreateGame:
		frame = struct {
			Action ClientAction `json:"action"`
			CreateGame
		}{m.Action(), m}
	case JoinGame:
		frame = struct {
			Action ClientAction `json:"action"`
			JoinGame
		}{m.Action(), m}
	case LeaveGame:
		frame = struct {
			Action ClientAction `json:"action"`
			LeaveGame
		}{m.Action(), m}
	case GetRoomInfo:
		frame = struct {
			Action ClientAction `json:"action"`
			GetRoomInfo
		}{m.Action(), m}
	case Kick:
		frame = struct {
			Action ClientAction `json:"action"`
			Kick
		}{m.Action(), m}
	case ChangeRole:
		frame = struct {
			Action ClientAction `json:"action"`
			ChangeRole
		}{m.Action(), m}
	case nil:
		return nil, errNilClientFrame
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, msg)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Action(), err)
	}
	return data, nil
}

// Decode parses one inbound frame.
//
// Frames that are not a JSON object, lack a string action, or carry fields
// of the wrong type fail with ErrMalformed. A well-formed frame with an
// action this client does not know fails with ErrUnknownAction.
func Decode(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Action == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, ErrMissingAction)
	}

	switch ServerAction(*env.Action) {
	case ActionRoomCreated:
		return decodeAs[RoomCreated](data)
	case ActionPlayerJoined:
		return decodeAs[PlayerJoined](data)
	case ActionRoomDoesNotExist:
		return decodeAs[RoomDoesNotExist](data)
	case ActionRoomExists:
		return decodeAs[RoomExists](data)
	case ActionPlayerExists:
		return decodeAs[PlayerExists](data)
	case ActionKicked:
		return decodeAs[Kicked](data)
	case ActionRoomInfo:
		return decodeAs[RoomInfo](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, *env.Action)
	}
}

func decodeAs[T ServerMessage](data []byte) (ServerMessage, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, msg.Action(), err)
	}
	return msg, nil
}

// PeekAction returns the action of a frame without decoding the payload.
// It returns "" when the frame has no readable string action.
func PeekAction(data []byte) string {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Action == nil {
		return ""
	}
	return *env.Action
}
