// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 64
	MaxColorLen    = 32
)

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
	ErrUsernameEmpty = errors.New("username empty")
	ErrNameTooLong   = errors.New("username too long")
	ErrColorTooLong  = errors.New("color too long")
)

type UserID string

// User is the client-asserted identity attached to a connection.
// Nothing here is verified; any client may claim any id or name.
type User struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// NewUser validates field lengths and keeps adapters free of ad-hoc literals.
func NewUser(id, name, color string) (*User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if name == "" {
		return nil, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrNameTooLong
	}
	if len(color) > MaxColorLen {
		return nil, ErrColorTooLong
	}
	return &User{ID: UserID(id), Name: name, Color: color}, nil
}
