package webapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// NonceAction is the action the admin page's nonce is bound to.
const NonceAction = "run-check-via-check-it-button"

// DefaultNonceLifetime matches the admin-ajax default of one day. A token
// is accepted during the tick it was created in and the following one.
const DefaultNonceLifetime = 24 * time.Hour

// Nonces creates and verifies short-lived, action-bound tokens.
type Nonces struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewNonces returns a nonce source keyed by secret. An empty secret gets a
// random per-process key, so tokens do not survive a restart.
func NewNonces(secret string) *Nonces {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Nonces{secret: key, lifetime: DefaultNonceLifetime, now: time.Now}
}

func (n *Nonces) tick() int64 {
	half := int64(n.lifetime / 2 / time.Second)
	now := n.now().Unix()
	return (now + half - 1) / half
}

func (n *Nonces) token(tick int64, action string) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write([]byte(strconv.FormatInt(tick, 10) + "|" + action))
	sum := hex.EncodeToString(mac.Sum(nil))
	return sum[len(sum)-12 : len(sum)-2]
}

// Create returns the token for action in the current tick.
func (n *Nonces) Create(action string) string {
	return n.token(n.tick(), action)
}

// Verify reports whether token was created for action in the current or
// previous tick.
func (n *Nonces) Verify(action, token string) bool {
	if token == "" {
		return false
	}
	t := n.tick()
	for _, tick := range []int64{t, t - 1} {
		if hmac.Equal([]byte(token), []byte(n.token(tick, action))) {
			return true
		}
	}
	return false
}
