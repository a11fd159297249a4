// models/invite.go
package models

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
)

// InviteTTL is how long an invitation stays usable after creation.
const InviteTTL = 48 * time.Hour

// ProjectInvite is a pending membership offer. pending is the only live
// state; accepted and expired are terminal.
type ProjectInvite struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	ProjectID   uint         `json:"project_id" gorm:"not null;index"`
	Project     *Project     `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	InvitedByID uint         `json:"invited_by_id" gorm:"not null"`
	InvitedBy   *User        `json:"invited_by,omitempty" gorm:"foreignKey:InvitedByID"`
	Email       string       `json:"email" gorm:"not null;index;size:254"`
	Token       string       `json:"-" gorm:"uniqueIndex;not null;size:36"`
	Status      InviteStatus `json:"status" gorm:"not null;default:'pending';size:10;index"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at" gorm:"not null"`
}

func (ProjectInvite) TableName() string {
	return "project_invites"
}

// IsExpired reports whether the invite's wall-clock deadline has passed,
// independent of its stored status.
func (i *ProjectInvite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
