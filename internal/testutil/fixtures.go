package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sujal/maths-tabel-server/internal/domain"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
	role     domain.Role
	approved bool
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "testpassword123",
		role:     domain.RoleUser,
		approved: true,
	}
}

// WithUsername sets the display username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithRole sets the role
func (b *UserBuilder) WithRole(role domain.Role) *UserBuilder {
	b.role = role
	return b
}

// Pending marks the user as not yet approved
func (b *UserBuilder) Pending() *UserBuilder {
	b.approved = false
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	display, lower := domain.NormalizeUsername(b.username)
	user := &domain.User{
		ID:            uuid.New(),
		Username:      display,
		UsernameLower: lower,
		PasswordHash:  string(hashedPassword),
		Role:          b.role,
		Approved:      b.approved,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// SessionBuilder creates session rows directly in the database
type SessionBuilder struct {
	userID    uuid.UUID
	expiresAt time.Time
	lastSeen  time.Time
}

// NewSessionBuilder creates a new SessionBuilder for the given user
func NewSessionBuilder(userID uuid.UUID) *SessionBuilder {
	now := time.Now()
	return &SessionBuilder{
		userID:    userID,
		expiresAt: now.Add(time.Hour),
		lastSeen:  now,
	}
}

// ExpiresAt sets the absolute expiry
func (b *SessionBuilder) ExpiresAt(at time.Time) *SessionBuilder {
	b.expiresAt = at
	return b
}

// LastSeenAt sets the last-seen marker
func (b *SessionBuilder) LastSeenAt(at time.Time) *SessionBuilder {
	b.lastSeen = at
	return b
}

// Build creates the session in the database
func (b *SessionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Session {
	t.Helper()

	session := &domain.Session{
		ID:         uuid.New(),
		UserID:     b.userID,
		ExpiresAt:  b.expiresAt,
		LastSeenAt: b.lastSeen,
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

// UserEnvelope matches the {"user": {...}} responses of the API
type UserEnvelope struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
		Approved bool   `json:"approved"`
	} `json:"user"`
}

// Login authenticates via the API; the auth cookie lands in the
// client's jar. Fails the test unless the login returns 200.
func Login(t *testing.T, ts *TestServer, client *http.Client, username, password string) UserEnvelope {
	t.Helper()

	body, _ := json.Marshal(map[string]interface{}{
		"username": username,
		"password": password,
	})

	resp, err := client.Post(ts.APIURL("/auth/login"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to log in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned status %d", resp.StatusCode)
	}

	var envelope UserEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return envelope
}
