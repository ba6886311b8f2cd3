package service

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"
)

// base32 without padding; 10 random bytes encode to exactly 16 characters.
var numberEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewContractNumber generates a human-readable, collision-resistant contract
// number of the form SC-YYYYMMDD-XXXXXXXXXXXXXXXX.
func NewContractNumber(now time.Time) (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate contract number: %w", err)
	}
	return fmt.Sprintf("SC-%s-%s", now.Format("20060102"), numberEncoding.EncodeToString(buf)), nil
}
