package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPriority orders delivery when a recipient is offline.
// High and critical notifications are queued even while a socket looks
// healthy, so a delivery race never drops them.
type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityNormal   NotificationPriority = "normal"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

type Notification struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Type      string
	Title     string
	Message   string
	Priority  NotificationPriority
	Metadata  map[string]interface{}
	IsRead    bool
	CreatedAt time.Time
}
