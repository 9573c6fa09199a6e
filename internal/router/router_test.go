package router

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/onenight/partyclient/internal/protocol"
)

func decode(t *testing.T, frame string) protocol.ServerMessage {
	t.Helper()
	msg, err := protocol.Decode([]byte(frame))
	if err != nil {
		t.Fatalf("decode %s: %v", frame, err)
	}
	return msg
}

func TestRouter_FanOutToDistinctSubscribers(t *testing.T) {
	r := NewRouter(nil)

	var a, b []protocol.PlayerJoined
	On(r, "A", func(m protocol.PlayerJoined) { a = append(a, m) })
	On(r, "B", func(m protocol.PlayerJoined) { b = append(b, m) })

	n := r.Dispatch(decode(t, `{"action":"PlayerJoined","player_name":"Bob"}`))

	if n != 2 {
		t.Errorf("Dispatch() = %d, want 2", n)
	}
	want := protocol.PlayerJoined{PlayerName: "Bob"}
	if len(a) != 1 || a[0] != want {
		t.Errorf("A received %v, want [%v]", a, want)
	}
	if len(b) != 1 || b[0] != want {
		t.Errorf("B received %v, want [%v]", b, want)
	}
}

func TestRouter_ReplaceNotAccumulate(t *testing.T) {
	r := NewRouter(nil)

	first, second := 0, 0
	On(r, "A", func(protocol.Kicked) { first++ })
	On(r, "A", func(protocol.Kicked) { second++ })

	r.Dispatch(protocol.Kicked{})

	if first != 0 {
		t.Errorf("replaced handler ran %d times, want 0", first)
	}
	if second != 1 {
		t.Errorf("current handler ran %d times, want 1", second)
	}
	if got := r.Subscribers(protocol.ActionKicked); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Subscribers() = %v, want [A]", got)
	}
}

func TestRouter_NoSubscribers(t *testing.T) {
	r := NewRouter(nil)

	On(r, "A", func(protocol.RoomExists) { t.Error("wrong action delivered") })

	if n := r.Dispatch(protocol.RoomCreated{RoomCode: "ABCD"}); n != 0 {
		t.Errorf("Dispatch() = %d, want 0", n)
	}
	if n := r.Dispatch(nil); n != 0 {
		t.Errorf("Dispatch(nil) = %d, want 0", n)
	}

	stats := r.Stats()
	if stats.Unrouted != 1 {
		t.Errorf("Unrouted = %d, want 1", stats.Unrouted)
	}
	if stats.HandlersInvoked != 0 {
		t.Errorf("HandlersInvoked = %d, want 0", stats.HandlersInvoked)
	}
}

func TestRouter_RoomInfoPayload(t *testing.T) {
	r := NewRouter(nil)

	var got protocol.RoomInfo
	calls := 0
	On(r, "A", func(info protocol.RoomInfo) {
		got = info
		calls++
	})

	r.Dispatch(decode(t, `{"action":"RoomInfo","players":["Alice","Bob"],"host":"Alice","roles":{"Werewolf":2,"Seer":1}}`))

	want := protocol.RoomInfo{
		Players: []string{"Alice", "Bob"},
		Host:    "Alice",
		Roles:   map[string]int64{"Werewolf": 2, "Seer": 1},
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("payload = %#v, want %#v", got, want)
	}

	// The payload carries no discriminant
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if _, ok := fields["action"]; ok {
		t.Errorf("payload has action key: %s", data)
	}
}

func TestRouter_JoinThenRoomExistsHasNoDiscriminant(t *testing.T) {
	r := NewRouter(nil)

	// What the client would send
	if _, err := protocol.Encode(protocol.JoinGame{PlayerName: "Alice", RoomCode: "AB12"}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var payload protocol.RoomExists
	calls := 0
	On(r, "JoinGameBox", func(m protocol.RoomExists) {
		payload = m
		calls++
	})

	r.Dispatch(decode(t, `{"action":"RoomExists"}`))

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	data, _ := json.Marshal(payload)
	if string(data) != "{}" {
		t.Errorf("payload = %s, want {}", data)
	}
}

func TestRouter_Unsubscribe(t *testing.T) {
	r := NewRouter(nil)

	calls := 0
	On(r, "A", func(protocol.Kicked) { calls++ })
	On(r, "A", func(protocol.RoomExists) { calls++ })
	On(r, "B", func(protocol.Kicked) { calls++ })

	r.Unsubscribe("A", protocol.ActionKicked)
	r.Unsubscribe("A", protocol.ActionKicked)
	r.Unsubscribe("missing", protocol.ActionRoomInfo)

	r.Dispatch(protocol.Kicked{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (B only)", calls)
	}

	r.UnsubscribeAll("A")
	r.UnsubscribeAll("B")
	r.Dispatch(protocol.Kicked{})
	r.Dispatch(protocol.RoomExists{})
	if calls != 1 {
		t.Errorf("calls = %d after UnsubscribeAll, want 1", calls)
	}
	if got := r.Stats().Registrations; got != 0 {
		t.Errorf("Registrations = %d, want 0", got)
	}
}

func TestRouter_ReentrantMutationDuringDispatch(t *testing.T) {
	r := NewRouter(nil)

	aCalls, bCalls := 0, 0
	r.Subscribe("A", protocol.ActionKicked, func(protocol.ServerMessage) {
		aCalls++
		r.Unsubscribe("A", protocol.ActionKicked)
		r.Unsubscribe("B", protocol.ActionKicked)
		r.Subscribe("C", protocol.ActionKicked, func(protocol.ServerMessage) {})
	})
	r.Subscribe("B", protocol.ActionKicked, func(protocol.ServerMessage) { bCalls++ })

	n := r.Dispatch(protocol.Kicked{})

	// Removal affects later dispatches only
	if n != 2 {
		t.Errorf("Dispatch() = %d, want 2", n)
	}
	if aCalls != 1 || bCalls != 1 {
		t.Errorf("aCalls = %d, bCalls = %d, want 1, 1", aCalls, bCalls)
	}

	n = r.Dispatch(protocol.Kicked{})
	if n != 1 {
		t.Errorf("second Dispatch() = %d, want 1 (C)", n)
	}
	if got := r.Subscribers(protocol.ActionKicked); !reflect.DeepEqual(got, []string{"C"}) {
		t.Errorf("Subscribers() = %v, want [C]", got)
	}
}

func TestRouter_PanickingHandlerIsolated(t *testing.T) {
	r := NewRouter(nil)

	ok := 0
	r.Subscribe("bad", protocol.ActionKicked, func(protocol.ServerMessage) { panic("boom") })
	r.Subscribe("good", protocol.ActionKicked, func(protocol.ServerMessage) { ok++ })

	r.Dispatch(protocol.Kicked{})

	if ok != 1 {
		t.Errorf("good handler calls = %d, want 1", ok)
	}
	stats := r.Stats()
	if stats.HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, want 1", stats.HandlerPanics)
	}
	if stats.HandlersInvoked != 2 {
		t.Errorf("HandlersInvoked = %d, want 2", stats.HandlersInvoked)
	}
}

func TestRouterProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every distinct subscriber receives the message once", prop.ForAll(
		func(ids []string, room string) bool {
			r := NewRouter(nil)

			counts := make(map[string]int)
			for _, id := range ids {
				id := id
				On(r, id, func(m protocol.RoomCreated) {
					if m.RoomCode == room {
						counts[id]++
					}
				})
			}

			r.Dispatch(protocol.RoomCreated{RoomCode: room})

			distinct := make(map[string]struct{})
			for _, id := range ids {
				distinct[id] = struct{}{}
			}
			if len(counts) != len(distinct) {
				return false
			}
			for _, n := range counts {
				if n != 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.Property("re-registering keeps only the last handler", prop.ForAll(
		func(times int) bool {
			r := NewRouter(nil)

			var fired []int
			for i := 0; i < times; i++ {
				i := i
				On(r, "A", func(protocol.Kicked) { fired = append(fired, i) })
			}

			r.Dispatch(protocol.Kicked{})
			return len(fired) == 1 && fired[0] == times-1
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
