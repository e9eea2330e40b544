package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Sign returns the SignatureHeader value for payload sent at timestamp
// (unix seconds): "t=<timestamp>,v1=<hex hmac-sha256 of "<timestamp>.<payload>">".
func Sign(secret string, timestamp int64, payload []byte) string {
	ts := strconv.FormatInt(timestamp, 10)
	return "t=" + ts + ",v1=" + digest(secret, ts, payload)
}

// Verify checks a SignatureHeader value against payload. It does not look
// at the age of the timestamp; use VerifyWithin for that.
func Verify(secret string, payload []byte, header string) bool {
	ts, sig, ok := parseHeader(header)
	if !ok {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(digest(secret, ts, payload)))
}

// VerifyWithin is Verify plus a replay window: the signed timestamp must be
// no further than tolerance from now.
func VerifyWithin(secret string, payload []byte, header string, now time.Time, tolerance time.Duration) bool {
	ts, _, ok := parseHeader(header)
	if !ok {
		return false
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := now.Sub(time.Unix(unix, 0))
	if age < -tolerance || age > tolerance {
		return false
	}
	return Verify(secret, payload, header)
}

func digest(secret, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseHeader(header string) (ts, sig string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sig = value
		}
	}
	return ts, sig, ts != "" && sig != ""
}
