package status

import "sync"

// WhenReady runs fn once the tracker reports connected: immediately (before
// WhenReady returns) if it already is, otherwise on the next transition to
// connected. fn runs at most once; the registration removes itself first, so
// a later disconnect/reconnect does not run fn again.
//
// The registration is keyed by id like any other listener, so a later
// Listen or WhenReady with the same id replaces a gate that has not fired.
func (t *Tracker) WhenReady(id string, fn func()) {
	var once sync.Once

	reg := &registration{}
	reg.fn = func(connected bool) {
		if !connected {
			return
		}
		once.Do(func() {
			t.remove(id, reg)
			fn()
		})
	}

	t.install(id, reg)
}
