package models

import "time"

// Notification is a single alarm shown in the notification list.
type Notification struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Link    string `json:"link"`
	Date    string `json:"date"`
}

// Page is one batch of notifications returned by GET /notification.
// Cursor is the token the page was requested with; it is filled in by the
// client and never travels over the wire.
type Page struct {
	Cursor        string         `json:"-"`
	Notifications []Notification `json:"notifications"`
	NextCursor    *string        `json:"nextCursor"`
}

// HasNext reports whether the server announced a continuation cursor.
func (p Page) HasNext() bool {
	return p.NextCursor != nil && *p.NextCursor != ""
}

// Next returns the continuation cursor, or "" on the last page.
func (p Page) Next() string {
	if !p.HasNext() {
		return ""
	}
	return *p.NextCursor
}

// NotificationEvent is the queue message that creates a notification.
type NotificationEvent struct {
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}
