package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/property-portal/roles"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string     `json:"user_id"`              // Unique identifier for the user
	Email        string     `json:"email"`                // User's email address, stored lower-cased
	FullName     string     `json:"full_name"`            // Display name
	Phone        string     `json:"phone,omitempty"`      // Contact number
	Role         roles.Role `json:"role"`                 // The single portal role the account holds
	PasswordHash string     `json:"-"`                    // Hashed version of the user's password - never serialize
	DateJoined   time.Time  `json:"date_joined,omitzero"` // Date and time when the user registered
	LastLogin    time.Time  `json:"last_login,omitzero"`  // Last time the user logged in
	Blocked      bool       `json:"blocked,omitempty"`    // Blocked, has the user been blocked from logging in
}

// NewUser hashes password and returns a user ready for Upsert.
func NewUser(email, fullName string, role roles.Role, password string) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[users.NewUser] hash password: %w", err)
	}
	return &User{
		Email:        NormaliseEmail(email),
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		DateJoined:   time.Now().UTC(),
	}, nil
}

// NormaliseEmail trims and lower-cases an address
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword compares password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// CanUse reports whether the user's role may use the given role's surface
func (u *User) CanUse(surface roles.Role) bool {
	return u.Role.Satisfies(surface)
}
