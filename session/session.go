package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jrsteele09/property-portal/roles"
)

// Storage keys. One canonical name per field; every key is written and cleared together.
const (
	KeyToken     = "token"
	KeyRole      = "role"
	KeyUserID    = "user_id"
	KeyEmail     = "email"
	KeyFullName  = "full_name"
	KeyUser      = "user"
	KeyLoginTime = "login_time"
)

// Keys lists every persisted session key.
var Keys = []string{KeyToken, KeyRole, KeyUserID, KeyEmail, KeyFullName, KeyUser, KeyLoginTime}

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
)

// Session is the client-held proof of a successful login.
type Session struct {
	Token     string          `json:"-"`          // Opaque bearer credential
	UserID    string          `json:"user_id"`    // Backend user identifier
	Role      roles.Role      `json:"role"`       // Role reported by the backend at login
	FullName  string          `json:"full_name"`  // Display name
	Email     string          `json:"email"`      // Login email
	LoginTime time.Time       `json:"login_time"` // When the login completed
	User      json.RawMessage `json:"-"`          // Full user object as returned by the backend
}

// Validate checks the fields every persisted session must carry.
func (s *Session) Validate() error {
	if s == nil {
		return ErrInvalidSession
	}
	if s.Token == "" {
		return errors.New("token is required")
	}
	if !s.Role.Valid() {
		return errors.New("role is invalid")
	}
	if s.UserID == "" {
		return errors.New("user id is required")
	}
	if s.LoginTime.IsZero() {
		return errors.New("login time is required")
	}
	return nil
}

func (s *Session) values() map[string]string {
	user := s.User
	if len(user) == 0 {
		user, _ = json.Marshal(s)
	}
	return map[string]string{
		KeyToken:     s.Token,
		KeyRole:      s.Role.String(),
		KeyUserID:    s.UserID,
		KeyEmail:     s.Email,
		KeyFullName:  s.FullName,
		KeyUser:      string(user),
		KeyLoginTime: s.LoginTime.UTC().Format(time.RFC3339Nano),
	}
}

func fromValues(values map[string]string) (*Session, error) {
	role, err := roles.Parse(values[KeyRole])
	if err != nil {
		return nil, err
	}
	loginTime, err := time.Parse(time.RFC3339Nano, values[KeyLoginTime])
	if err != nil {
		return nil, errors.New("login time is malformed")
	}
	s := &Session{
		Token:     values[KeyToken],
		UserID:    values[KeyUserID],
		Role:      role,
		FullName:  values[KeyFullName],
		Email:     values[KeyEmail],
		LoginTime: loginTime,
	}
	if raw := values[KeyUser]; raw != "" && json.Valid([]byte(raw)) {
		s.User = json.RawMessage(raw)
	}
	return s, s.Validate()
}
