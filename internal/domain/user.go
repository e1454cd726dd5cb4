package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username      string     `json:"username" gorm:"not null"`
	UsernameLower string     `json:"-" gorm:"uniqueIndex;not null"`
	PasswordHash  string     `json:"-" gorm:"not null"`
	Role          Role       `json:"role" gorm:"not null;default:'user'"`
	Approved      bool       `json:"approved" gorm:"not null;default:false"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Session is owned by a User and only authorizes requests while
// ExpiresAt is in the future. Expired rows are swept lazily and by
// the background sweeper.
type Session struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"not null;index"`
	LastSeenAt time.Time `json:"lastSeenAt" gorm:"not null"`
	UserAgent  string    `json:"userAgent" gorm:"size:500"`
	IPAddress  string    `json:"ipAddress" gorm:"size:128"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SafeUser is the projection of a User that may leave the server.
type SafeUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Approved bool   `json:"approved"`
}

func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:       u.ID.String(),
		Username: u.Username,
		Role:     u.Role,
		Approved: u.Approved,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeUsername trims the display username and derives the
// lowercase key used for case-insensitive uniqueness. Callers must
// normalize before any store lookup or insert.
func NormalizeUsername(username string) (display, lower string) {
	display = strings.TrimSpace(username)
	return display, strings.ToLower(display)
}

// SessionMeta carries best-effort client metadata recorded at login.
// Values longer than the column bounds are truncated, not rejected.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

const (
	maxUserAgentLen = 500
	maxIPAddressLen = 128
)

func (m SessionMeta) Bounded() SessionMeta {
	if len(m.UserAgent) > maxUserAgentLen {
		m.UserAgent = m.UserAgent[:maxUserAgentLen]
	}
	if len(m.IPAddress) > maxIPAddressLen {
		m.IPAddress = m.IPAddress[:maxIPAddressLen]
	}
	return m
}
