package users

import (
	"errors"
	"strings"
	"time"
)

// DeptManagement is the department whose members are created as superusers.
const DeptManagement = "management"

var (
	ErrNotFound        = errors.New("user not found")
	ErrAlreadyExists   = errors.New("user already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)

// User is a person registered in the rewards API.
//
// Superuser is an explicit attribute. It is derived from Dept exactly once,
// when the record is constructed by New, and stored alongside the record.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Dept         string    `json:"dept"`
	Currency     string    `json:"currency"`
	Superuser    bool      `json:"superuser"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser carries the fields needed to construct a User.
type NewUser struct {
	Email        string
	Username     string
	Avatar       string
	Bio          string
	PasswordHash string
	Name         string
	Dept         string
	Currency     string
}

// New validates n and builds a User. An empty Username is generated from Name.
func New(n NewUser) (User, error) {
	n.Email = strings.TrimSpace(n.Email)
	n.Name = strings.TrimSpace(n.Name)
	n.Dept = strings.TrimSpace(n.Dept)
	n.Currency = strings.TrimSpace(n.Currency)
	if n.Email == "" || n.Name == "" || n.Dept == "" || n.Currency == "" || n.PasswordHash == "" {
		return User{}, ErrInvalidArgument
	}

	username := strings.TrimSpace(n.Username)
	if username == "" {
		username = GenerateUsername(n.Name)
	}

	return User{
		Email:        n.Email,
		Username:     username,
		Avatar:       n.Avatar,
		Bio:          n.Bio,
		PasswordHash: n.PasswordHash,
		Name:         n.Name,
		Dept:         n.Dept,
		Currency:     n.Currency,
		Superuser:    n.Dept == DeptManagement,
	}, nil
}

// GenerateUsername builds a slug username from a display name:
// "Bruno Rocha" -> "bruno-rocha".
func GenerateUsername(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
