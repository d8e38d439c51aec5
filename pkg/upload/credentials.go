package upload

import (
	"errors"
	"os"
)

const (
	// EnvAuthToken holds the content API authorization token.
	EnvAuthToken = "AUTH_TOKEN"
	// EnvCookie holds the content API session cookie string.
	EnvCookie = "COOKIE_STRING"
)

// ErrMissingCredentials is returned before any I/O when a credential is empty.
var ErrMissingCredentials = errors.New("environment variable AUTH_TOKEN or COOKIE_STRING is not set")

// Credentials authenticate requests to the content API. They are read once at
// startup and never logged.
type Credentials struct {
	AuthToken string
	Cookie    string
}

// CredentialsFromEnv reads the credentials from the process environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		AuthToken: os.Getenv(EnvAuthToken),
		Cookie:    os.Getenv(EnvCookie),
	}
}

// Validate reports ErrMissingCredentials unless both fields are set.
func (c Credentials) Validate() error {
	if c.AuthToken == "" || c.Cookie == "" {
		return ErrMissingCredentials
	}
	return nil
}

// String redacts the secrets so credentials can't leak through %v.
func (c Credentials) String() string {
	return "Credentials{AuthToken:<redacted>, Cookie:<redacted>}"
}

// GoString redacts the secrets for %#v.
func (c Credentials) GoString() string { return c.String() }
