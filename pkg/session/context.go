package session

import "strings"

// Context is the identity the process acts on behalf of.
type Context struct {
	Email  string `json:"email"`
	Tenant string `json:"tenant,omitempty"`
	Token  string `json:"token,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (c Context) Normalize() Context {
	return Context{
		Email:  strings.TrimSpace(c.Email),
		Tenant: strings.TrimSpace(c.Tenant),
		Token:  strings.TrimSpace(c.Token),
	}
}

// IsZero reports whether no identity is set.
func (c Context) IsZero() bool {
	return strings.TrimSpace(c.Email) == ""
}

// Validate returns ErrInvalidContext when the email is missing.
func (c Context) Validate() error {
	if c.IsZero() {
		return ErrInvalidContext
	}
	return nil
}
