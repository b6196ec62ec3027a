package blog

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultConfirmTTL is how long a delete confirmation token stays valid.
const DefaultConfirmTTL = 5 * time.Minute

// ErrBadConfirmation is returned when a delete token is missing, wrong or expired.
var ErrBadConfirmation = errors.New("delete confirmation missing, invalid or expired")

type pending struct {
	postID  string
	expires time.Time
}

// Confirmations holds one-time tokens for destructive actions.
type Confirmations struct {
	mu     sync.Mutex
	tokens map[string]pending // token -> target
	ttl    time.Duration
	now    func() time.Time
}

// NewConfirmations creates an empty token table.
func NewConfirmations(ttl time.Duration) *Confirmations {
	if ttl <= 0 {
		ttl = DefaultConfirmTTL
	}
	return &Confirmations{
		tokens: make(map[string]pending),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a fresh token for postID and when it expires.
func (c *Confirmations) Issue(postID string) (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := uuid.NewString()
	expires := c.now().Add(c.ttl)
	c.tokens[token] = pending{postID: postID, expires: expires}
	return token, expires
}

// Consume validates token for postID and invalidates it.
// A token presented for another post is left untouched.
func (c *Confirmations) Consume(postID, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.tokens[token]
	if !ok || p.postID != postID {
		return ErrBadConfirmation
	}
	delete(c.tokens, token)
	if !c.now().Before(p.expires) {
		return ErrBadConfirmation
	}
	return nil
}

// Sweep drops expired tokens and returns how many were removed.
func (c *Confirmations) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for token, p := range c.tokens {
		if !now.Before(p.expires) {
			delete(c.tokens, token)
			n++
		}
	}
	return n
}

// Len returns the number of outstanding tokens.
func (c *Confirmations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}
