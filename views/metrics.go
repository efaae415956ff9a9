package views

// Metrics receives notifications about view-layer activity. A sink is
// injected explicitly through the Context; there is no ambient global
// state. Implementations must be safe for concurrent use when the same
// sink is shared between contexts of different state roots.
type Metrics interface {
	// SaveDone reports a completed root-view save for the given state
	// root, together with the number of batch operations written.
	SaveDone(root []byte, ops int)

	// FlushDone reports a completed flush of one named child view.
	FlushDone(field string)
}

// NopMetrics discards all notifications.
type NopMetrics struct{}

func (NopMetrics) SaveDone(root []byte, ops int) {}

func (NopMetrics) FlushDone(field string) {}
