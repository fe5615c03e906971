package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// HeaderAPIKey is the header containing the caller's API key identifier.
	HeaderAPIKey = "X-Api-Key"
	// HeaderTimestamp is the unix timestamp (seconds) used when signing the request.
	HeaderTimestamp = "X-Timestamp"
	// HeaderNonce provides replay protection when combined with the timestamp.
	HeaderNonce = "X-Nonce"
	// HeaderSignature carries the hex-encoded HMAC-SHA256 signature for the request.
	HeaderSignature = "X-Signature"

	defaultTimestampSkew = 2 * time.Minute
	defaultNonceWindow   = 10 * time.Minute
)

var (
	ErrAuthMissingHeaders = errors.New("gateway: missing authentication headers")
	ErrAuthUnknownKey     = errors.New("gateway: unknown api key")
	ErrAuthStaleTimestamp = errors.New("gateway: timestamp outside allowed skew")
	ErrAuthNonceReplay    = errors.New("gateway: nonce already used")
	ErrAuthBadSignature   = errors.New("gateway: signature mismatch")
)

// Principal represents an authenticated API client bound to its on-platform
// identity address.
type Principal struct {
	APIKey   string
	Identity [20]byte
}

type Credential struct {
	secret   string
	identity [20]byte
}

// Authenticator verifies API key + HMAC signatures on incoming requests and
// tracks recently seen nonces for replay protection.
type Authenticator struct {
	creds map[string]Credential
	skew  time.Duration
	nowFn func() time.Time

	nonceMu sync.Mutex
	nonces  map[string]time.Time
}

// NewAuthenticator builds an Authenticator from API key credentials. The nowFn
// override is primarily for tests.
func NewAuthenticator(creds map[string]Credential, skew time.Duration, nowFn func() time.Time) *Authenticator {
	if skew <= 0 {
		skew = defaultTimestampSkew
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	cloned := make(map[string]Credential, len(creds))
	for key, cred := range creds {
		cloned[strings.TrimSpace(key)] = cred
	}
	return &Authenticator{
		creds:  cloned,
		skew:   skew,
		nowFn:  nowFn,
		nonces: make(map[string]time.Time),
	}
}

// NewCredential pairs an API secret with its identity address.
func NewCredential(secret string, identity [20]byte) Credential {
	return Credential{secret: strings.TrimSpace(secret), identity: identity}
}

// ComputeSignature derives the canonical request signature.
func ComputeSignature(secret, timestamp, nonce, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(nonce))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strings.ToUpper(method)))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(path))
	mac.Write([]byte{'\n'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate validates headers and signature, returning the caller principal.
func (a *Authenticator) Authenticate(r *http.Request, body []byte) (*Principal, error) {
	apiKey := strings.TrimSpace(r.Header.Get(HeaderAPIKey))
	timestamp := strings.TrimSpace(r.Header.Get(HeaderTimestamp))
	nonce := strings.TrimSpace(r.Header.Get(HeaderNonce))
	signature := strings.TrimSpace(r.Header.Get(HeaderSignature))
	if apiKey == "" || timestamp == "" || nonce == "" || signature == "" {
		return nil, ErrAuthMissingHeaders
	}
	cred, ok := a.creds[apiKey]
	if !ok {
		return nil, ErrAuthUnknownKey
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, ErrAuthStaleTimestamp
	}
	now := a.nowFn()
	delta := now.Sub(time.Unix(ts, 0))
	if delta < 0 {
		delta = -delta
	}
	if delta > a.skew {
		return nil, ErrAuthStaleTimestamp
	}
	expected := ComputeSignature(cred.secret, timestamp, nonce, r.Method, r.URL.Path, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return nil, ErrAuthBadSignature
	}
	if !a.rememberNonce(apiKey+"|"+nonce, now) {
		return nil, ErrAuthNonceReplay
	}
	return &Principal{APIKey: apiKey, Identity: cred.identity}, nil
}

func (a *Authenticator) rememberNonce(key string, now time.Time) bool {
	a.nonceMu.Lock()
	defer a.nonceMu.Unlock()
	cutoff := now.Add(-defaultNonceWindow)
	for seen, at := range a.nonces {
		if at.Before(cutoff) {
			delete(a.nonces, seen)
		}
	}
	if _, used := a.nonces[key]; used {
		return false
	}
	a.nonces[key] = now
	return true
}
