package services

import "sync"

// SyncProgress is reported after each content type of a pass completes.
type SyncProgress struct {
	ProjectPath string `json:"projectPath"`
	ContentType string `json:"contentType"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	Success     bool   `json:"success"`
	Done        bool   `json:"done"`
}

// ProgressHub fans sync progress out to subscribers. Slow subscribers miss
// updates rather than blocking the sync.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[chan SyncProgress]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: map[chan SyncProgress]struct{}{}}
}

// Subscribe returns a buffered channel of updates and a cancel func that closes it.
func (h *ProgressHub) Subscribe() (<-chan SyncProgress, func()) {
	ch := make(chan SyncProgress, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers p to every subscriber without blocking.
func (h *ProgressHub) Publish(p SyncProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- p:
		default:
		}
	}
}
