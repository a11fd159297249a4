// models/user.go
package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

type Role string

const (
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:254"`
	FirstName string    `json:"first_name" gorm:"size:100"`
	LastName  string    `json:"last_name" gorm:"size:100"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"not null;default:'member';size:20"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contributor *Contributor `json:"contributor,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// EmailOTP is a one-time login challenge. Several rows may exist per email;
// only the newest one matters for verification.
type EmailOTP struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"not null;index;size:254"`
	OTP       string    `json:"-" gorm:"not null;size:6"`
	IsUsed    bool      `json:"is_used" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailOTP) TableName() string {
	return "email_otps"
}

// IsValid reports whether the OTP is unused and still inside its TTL.
func (o *EmailOTP) IsValid(ttl time.Duration, now time.Time) bool {
	return !o.IsUsed && now.Before(o.CreatedAt.Add(ttl))
}

// GenerateOTP returns a random 6-digit code.
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err) // crypto/rand is broken, nothing sane to return
	}
	return fmt.Sprintf("%06d", n.Int64())
}
