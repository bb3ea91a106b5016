package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragdash/internal/model"
)

const DefaultCapacity = 50

// Center keeps the most recent notifications in memory. Older entries are
// dropped once capacity is reached.
type Center struct {
	mu       sync.Mutex
	items    []model.Notification
	capacity int
	log      *zap.Logger
	now      func() time.Time
}

func NewCenter(capacity int, log *zap.Logger) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Center{capacity: capacity, log: log, now: time.Now}
}

func (c *Center) Notify(level model.Level, message string) {
	n := model.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: c.now(),
	}
	c.log.Debug("notification", zap.String("level", string(level)), zap.String("message", message))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
	if over := len(c.items) - c.capacity; over > 0 {
		c.items = append(c.items[:0:0], c.items[over:]...)
	}
}

// Recent returns pending notifications, oldest first, without removing them.
func (c *Center) Recent() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Notification(nil), c.items...)
}

// Drain returns pending notifications and clears them.
func (c *Center) Drain() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	return out
}
