package app

import "sync"

type NotificationLevel string

const (
	NotifyInfo  NotificationLevel = "info"
	NotifyError NotificationLevel = "error"
)

// Notification is a transient user-facing notice (a toast in the original
// UI). Validation no-ops never produce one; every caught failure does.
type Notification struct {
	Level       NotificationLevel `json:"level"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
}

type Notifier interface {
	Notify(n Notification)
}

// NotificationBuffer collects notifications raised during orchestrator
// operations so the transport layer can return them with the response.
type NotificationBuffer struct {
	mu    sync.Mutex
	items []Notification
}

func (b *NotificationBuffer) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, n)
}

func (b *NotificationBuffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.items
	b.items = nil
	return drained
}
