package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyCachedDocument holds the last resolved document seen by any instance.
	KeyCachedDocument = "readmehub:cache:document"
	// KeyPrefixRevoked is the prefix for revoked session ids.
	KeyPrefixRevoked = "readmehub:session:revoked:"
	// ChannelInvalidate carries a message after every accepted write.
	ChannelInvalidate = "readmehub:invalidate"
)

// DocumentKey returns the Redis key of the cached document.
func DocumentKey() string {
	return KeyCachedDocument
}

// RevokedKey returns the Redis key marking session jti as revoked.
func RevokedKey(jti string) string {
	return KeyPrefixRevoked + jti
}

// ExtractSessionID extracts the session id from a revocation key.
func ExtractSessionID(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixRevoked) || len(key) == len(KeyPrefixRevoked) {
		return "", fmt.Errorf("invalid revocation key: %s", key)
	}
	return key[len(KeyPrefixRevoked):], nil
}
