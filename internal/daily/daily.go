package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DealSeed returns a deterministic shuffle seed for a date using
// HMAC(salt, YYYY-MM-DD), so every player gets the same daily deal.
func DealSeed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes give a well-mixed seed
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
