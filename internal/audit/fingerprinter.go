package audit

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint identifies a token in audit logs without revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
