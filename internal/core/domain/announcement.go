package domain

import "time"

// AnnouncementType classifies a banner message.
type AnnouncementType string

const (
	AnnouncementInfo    AnnouncementType = "INFO"
	AnnouncementWarning AnnouncementType = "WARNING"
	AnnouncementUpdate  AnnouncementType = "UPDATE"
	AnnouncementNew     AnnouncementType = "NEW"
)

// Valid reports whether t is a known announcement type.
func (t AnnouncementType) Valid() bool {
	switch t {
	case AnnouncementInfo, AnnouncementWarning, AnnouncementUpdate, AnnouncementNew:
		return true
	}
	return false
}

// Announcement is a dashboard banner authored by an administrator.
type Announcement struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Type       AnnouncementType `json:"type"`
	IsActive   bool             `json:"isActive"`
	ExpiresAt  *time.Time       `json:"expiresAt"`
	CreatedBy  string           `json:"createdBy"`
	AuthorName string           `json:"authorName,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// VisibleAt reports whether end users should see the announcement at now.
func (a *Announcement) VisibleAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}
