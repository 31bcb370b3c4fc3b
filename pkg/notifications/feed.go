// Package notifications keeps the administrator activity feed.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultCapacity = 100

	subscriberBuffer = 16
)

var ErrNotificationNotFound = errors.New("notification not found")

// Feed is a bounded, in-memory history of notifications with live fan-out. When full, the
// oldest notification is dropped. Slow subscribers miss notifications rather than block Notify.
type Feed struct {
	mu          sync.Mutex
	items       []models.Notification
	capacity    int
	subscribers map[uint64]chan models.Notification
	nextID      uint64
	now         func() time.Time
	logger      *slog.Logger
}

func NewFeed(logger *slog.Logger, capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Feed{
		items:       make([]models.Notification, 0, capacity),
		capacity:    capacity,
		subscribers: make(map[uint64]chan models.Notification),
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With("module", "notifications"),
	}
}

// WithClock replaces the feed's time source.
func (f *Feed) WithClock(now func() time.Time) *Feed {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = now

	return f
}

// Notify records a notification and delivers it to subscribers. Missing id, level and
// creation time are filled in.
func (f *Feed) Notify(ctx context.Context, notification models.Notification) {
	f.mu.Lock()

	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}

	if notification.Level == "" {
		notification.Level = models.NotificationInfo
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = f.now()
	}

	notification.Read = false

	if len(f.items) == f.capacity {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}

	f.items = append(f.items, notification)

	for id, ch := range f.subscribers {
		select {
		case ch <- notification:
		default:
			f.logger.DebugContext(ctx, "Dropping notification for slow subscriber", "subscriber", id)
		}
	}

	f.mu.Unlock()

	f.logger.DebugContext(ctx, "Notification recorded", "kind", notification.Kind, "level", notification.Level)
}

// List returns up to limit notifications, newest first. A limit of 0 returns all of them.
func (f *Feed) List(limit int) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.items)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]models.Notification, 0, n)

	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}

	return out
}

// UnreadCount returns how many retained notifications are unread.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for _, item := range f.items {
		if !item.Read {
			count++
		}
	}

	return count
}

func (f *Feed) MarkRead(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true

			return nil
		}
	}

	return ErrNotificationNotFound
}

// MarkAllRead marks every notification read and returns how many changed.
func (f *Feed) MarkAllRead() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	changed := 0

	for i := range f.items {
		if !f.items[i].Read {
			f.items[i].Read = true
			changed++
		}
	}

	return changed
}

// Subscribe streams notifications recorded after the call. The channel closes when ctx is done.
func (f *Feed) Subscribe(ctx context.Context) <-chan models.Notification {
	ch := make(chan models.Notification, subscriberBuffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subscribers[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()

		f.mu.Lock()
		delete(f.subscribers, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}
