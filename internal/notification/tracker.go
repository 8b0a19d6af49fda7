package notification

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
)

type Notification struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Date     string   `json:"date"`
	Category Category `json:"type"`
	Read     bool     `json:"read"`
}

// Tracker holds a fixed list of notifications and their read flags. Entries
// are never added or removed.
type Tracker struct {
	mu    sync.RWMutex
	items []Notification
}

func NewTracker(items []Notification) *Tracker {
	cp := make([]Notification, len(items))
	copy(cp, items)
	return &Tracker{items: cp}
}

func (t *Tracker) List() []Notification {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Notification, len(t.items))
	copy(out, t.items)
	return out
}

// MarkRead sets the read flag of one entry. It reports whether the flag
// changed; marking an already read entry is a no-op.
func (t *Tracker) MarkRead(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.items {
		if t.items[i].ID == id {
			changed := !t.items[i].Read
			t.items[i].Read = true
			return changed, nil
		}
	}
	return false, fmt.Errorf("notification %q: %w", id, ErrNotificationNotFound)
}

// MarkAllRead sets every entry read and returns how many changed.
func (t *Tracker) MarkAllRead() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := 0
	for i := range t.items {
		if !t.items[i].Read {
			t.items[i].Read = true
			changed++
		}
	}
	return changed
}

func (t *Tracker) UnreadCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, n := range t.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func SampleNotifications() []Notification {
	return []Notification{
		{
			ID:       "1",
			Title:    "Course Registration Approved",
			Message:  "Your course registration for 2023/2024 session has been approved by your adviser.",
			Date:     "2024-01-15",
			Category: CategorySuccess,
		},
		{
			ID:       "2",
			Title:    "Exam Timetable Released",
			Message:  "The examination timetable for first semester 2023/2024 has been uploaded. Download now.",
			Date:     "2024-01-14",
			Category: CategoryInfo,
		},
		{
			ID:       "3",
			Title:    "Result Published",
			Message:  "Results for CSC301 Database Management Systems have been published.",
			Date:     "2024-01-12",
			Category: CategoryInfo,
			Read:     true,
		},
		{
			ID:       "4",
			Title:    "Registration Deadline Reminder",
			Message:  "Course registration closes in 3 days. Ensure you complete your registration.",
			Date:     "2024-01-10",
			Category: CategoryWarning,
			Read:     true,
		},
		{
			ID:       "5",
			Title:    "Academic Calendar Update",
			Message:  "The academic calendar has been updated with new important dates.",
			Date:     "2024-01-08",
			Category: CategoryInfo,
			Read:     true,
		},
	}
}
