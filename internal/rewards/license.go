package rewards

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LicenseKeyLength is the fixed length of issued license keys.
const LicenseKeyLength = 12

// GenerateLicenseKey returns a fixed length, uppercase hex license key.
func GenerateLicenseKey() (string, error) {
	b := make([]byte, LicenseKeyLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "read random")
	}

	return strings.ToUpper(hex.EncodeToString(b))[:LicenseKeyLength], nil
}

// GenerateAPIToken returns a fresh opaque bearer token for an account.
func GenerateAPIToken() string {
	return uuid.New().String()
}
