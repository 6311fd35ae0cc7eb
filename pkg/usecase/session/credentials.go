package session

import "strings"

// DefaultUsername is the login name when none is configured
const DefaultUsername = "leo"

// Credentials is the single fixed login pair. It gates the UI only and is
// not an authentication mechanism.
type Credentials struct {
	Username    string
	Password    string
	DisplayName string
}

// Verify matches username case-insensitively and password exactly. An empty
// configured password accepts nobody.
func (c Credentials) Verify(username, password string) bool {
	if c.Password == "" {
		return false
	}
	if !strings.EqualFold(username, c.Username) {
		return false
	}
	return password == c.Password
}

// Name returns the identity recorded as createdBy
func (c Credentials) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.Username != "" {
		return c.Username
	}
	return DefaultUsername
}
