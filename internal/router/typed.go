package router

import "github.com/onenight/partyclient/internal/protocol"

// On registers fn for the action of T under id. The handler narrows the
// decoded message to T, so fn only sees the variant's own fields.
//
//	router.On(r, "room", func(info protocol.RoomInfo) { ... })
func On[T protocol.ServerMessage](r Router, id string, fn func(T)) {
	var zero T
	r.Subscribe(id, zero.Action(), func(msg protocol.ServerMessage) {
		if m, ok := msg.(T); ok {
			fn(m)
		}
	})
}
