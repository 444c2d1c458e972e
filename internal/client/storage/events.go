package storage

// EventKind names a lifecycle notification.
type EventKind string

const (
	EventEncrypted   EventKind = "encrypted"
	EventMerkleBuilt EventKind = "merkle-built"
	EventReady       EventKind = "ready"
	EventError       EventKind = "error"
	// EventProgress reports upload progress of a ready file.
	EventProgress EventKind = "progress"
)

// Event is one notification about the file Name. Only the fields of its
// kind are set: FileSize for encrypted, MerkleRoot (hex) for merkle-built,
// Message for error and Percent for progress.
type Event struct {
	Kind       EventKind
	Name       string
	FileSize   int64
	MerkleRoot string
	Message    string
	Percent    int
}

// Subscribe registers an observer. Events that do not fit into the
// buffer are dropped for that observer. The returned function
// unsubscribes and closes the channel.
func (h *Handler) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	h.subMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	h.subMu.Unlock()

	var once bool
	return ch, func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(h.subs, id)
		close(ch)
	}
}

// broadcast delivers ev without blocking.
func (h *Handler) broadcast(ev Event) {
	h.metrics.Event(string(ev.Kind))

	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.metrics.EventDropped(string(ev.Kind))
		}
	}
}
