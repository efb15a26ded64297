package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// Request headers carrying the signature and its timestamp.
	HeaderSignature = "X-Slack-Signature"
	HeaderTimestamp = "X-Slack-Request-Timestamp"

	signatureVersion = "v0"
)

var (
	// ErrAuthenticationFailed means the request could not be proven to come from Slack.
	ErrAuthenticationFailed = errors.New("slack: authentication failed")
	// ErrVerifierMisconfigured means no signing secret is available to verify with.
	ErrVerifierMisconfigured = errors.New("slack: signing secret not configured")
)

// Verifier checks Slack request signatures.
type Verifier struct {
	secret  []byte
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerifier returns a verifier for the given signing secret. A positive
// maxSkew rejects requests whose timestamp is further than that from now.
func NewVerifier(secret string, maxSkew time.Duration) *Verifier {
	return &Verifier{
		secret:  []byte(secret),
		maxSkew: maxSkew,
		now:     time.Now,
	}
}

// Verify returns nil when signature is the expected v0 HMAC-SHA256 of
// "v0:<timestamp>:<body>".
func (v *Verifier) Verify(body []byte, signature, timestamp string) error {
	if len(v.secret) == 0 {
		return ErrVerifierMisconfigured
	}
	if signature == "" || timestamp == "" {
		return fmt.Errorf("%w: missing signature headers", ErrAuthenticationFailed)
	}
	if v.maxSkew > 0 {
		secs, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad timestamp", ErrAuthenticationFailed)
		}
		if d := v.now().Sub(time.Unix(secs, 0)); d > v.maxSkew || d < -v.maxSkew {
			return fmt.Errorf("%w: timestamp outside replay window", ErrAuthenticationFailed)
		}
	}

	expected, err := Sign(v.secret, timestamp, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrAuthenticationFailed
	}
	return nil
}

// Sign computes the "v0=<hex>" signature Slack sends for body at timestamp.
func Sign(secret []byte, timestamp string, body []byte) (string, error) {
	mac := hmac.New(sha256.New, secret)
	for _, part := range [][]byte{[]byte(signatureVersion + ":" + timestamp + ":"), body} {
		if _, err := mac.Write(part); err != nil {
			return "", fmt.Errorf("hash base string: %w", err)
		}
	}
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil)), nil
}
