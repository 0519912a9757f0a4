package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strconv"
	"strings"
)

// LoginRequest is the credential-exchange body sent to the shared login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // Only sent by portals configured to request a role
}

// ID accepts either a JSON number or a JSON string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// User is the user object embedded in a login response.
type User struct {
	UserID   ID     `json:"user_id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
}

// LoginResponse is the structured login reply.
type LoginResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token,omitempty"`
	User    *User           `json:"-"`
	RawUser json.RawMessage `json:"user,omitempty"` // Kept verbatim for the session's user key
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Reason returns whichever explanation the server supplied.
func (lr *LoginResponse) Reason() string {
	if lr.Error != "" {
		return lr.Error
	}
	return lr.Message
}

// RawResponse is an undecoded HTTP reply.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status
func (r *RawResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the reply declares a JSON media type.
func (r *RawResponse) IsJSON() bool {
	return IsJSONContentType(r.ContentType)
}

// IsJSONContentType accepts application/json and any +json suffix type.
func IsJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// DecodeLoginResponse decodes a structured login reply.
func DecodeLoginResponse(body []byte) (*LoginResponse, error) {
	var lr LoginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if len(lr.RawUser) > 0 && string(lr.RawUser) != "null" {
		var u User
		if err := json.Unmarshal(lr.RawUser, &u); err != nil {
			return nil, fmt.Errorf("decode login user: %w", err)
		}
		lr.User = &u
	} else {
		lr.RawUser = nil
	}
	return &lr, nil
}
