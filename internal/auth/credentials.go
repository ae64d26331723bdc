package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Credentials is the single admin account.
type Credentials struct {
	Username string
	Password string
}

// Check compares username and password against c in constant time. Both are
// hashed first so the comparison does not leak their lengths.
func (c Credentials) Check(username, password string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}
	wantUser := sha256.Sum256([]byte(c.Username))
	gotUser := sha256.Sum256([]byte(username))
	wantPass := sha256.Sum256([]byte(c.Password))
	gotPass := sha256.Sum256([]byte(password))

	userOK := subtle.ConstantTimeCompare(wantUser[:], gotUser[:])
	passOK := subtle.ConstantTimeCompare(wantPass[:], gotPass[:])
	return userOK&passOK == 1
}
