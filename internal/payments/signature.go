package payments

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sign builds the X-VERIFY token: hex(sha256(payload + path + secret)) + "###" + keyIndex.
func Sign(payload, path, secret, keyIndex string) string {
	h := sha256.New()
	h.Write([]byte(payload))
	h.Write([]byte(path))
	h.Write([]byte(secret))

	return hex.EncodeToString(h.Sum(nil)) + "###" + keyIndex
}
