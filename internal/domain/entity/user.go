// Package entity contains the core business objects of the storefront.
package entity

import (
	"strings"
	"time"
)

// ProviderType tags accounts that originate from an external identity provider.
type ProviderType string

const (
	ProviderTypeNone   ProviderType = ""
	ProviderTypeGoogle ProviderType = "google"
)

// User is a registered account in the user directory.
type User struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`                  // Trimmed and lowercased, unique across the directory.
	PasswordHash    string       `json:"passwordHash,omitempty"` // Empty for provider accounts.
	Avatar          string       `json:"avatar,omitempty"`
	Provider        ProviderType `json:"provider,omitempty"`
	ExternalSubject string       `json:"externalSubject,omitempty"` // e.g. Google's 'sub' claim.
	CreatedAt       time.Time    `json:"createdAt"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsProviderAccount reports whether the account is tagged with an external provider.
func (u *User) IsProviderAccount() bool {
	return u.Provider != ProviderTypeNone
}

// Session is the public projection of the active user.
type Session struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Session projects the user into its public session record.
func (u *User) Session() *Session {
	return &Session{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

// NormalizeEmail trims and lowercases an email for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the part of the address before '@'.
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")

	return local
}
