package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/crisvalt/billrelay-go/internal/domain"
)

// TokenStore is a mutex-guarded map of tokenNumber → PendingToken.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.PendingToken
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]*domain.PendingToken)}
}

// InsertIfAbsent registers the token unless the number is already taken.
func (s *TokenStore) InsertIfAbsent(token *domain.PendingToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[token.TokenNumber]; exists {
		return false
	}
	s.tokens[token.TokenNumber] = copyToken(token)
	return true
}

// Get returns a copy of the token with the given number.
func (s *TokenStore) Get(tokenNumber string) (*domain.PendingToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenNumber]
	if !ok {
		return nil, false
	}
	return copyToken(t), true
}

// MarkPaid transitions pending → paid, exactly once. A token that is absent
// or already paid is not consumed again.
func (s *TokenStore) MarkPaid(tokenNumber string) (*domain.PendingToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenNumber]
	if !ok || t.Status != domain.TokenStatusPending {
		return nil, false
	}
	t.Status = domain.TokenStatusPaid
	return copyToken(t), true
}

// ListPending returns copies of all pending tokens, oldest first.
func (s *TokenStore) ListPending() []*domain.PendingToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.PendingToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		if t.Status == domain.TokenStatusPending {
			out = append(out, copyToken(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// EvictBefore removes tokens created at or before cutoff. An abandoned
// pending token terminates here without ever reaching paid.
func (s *TokenStore) EvictBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for num, t := range s.tokens {
		if !t.CreatedAt.After(cutoff) {
			delete(s.tokens, num)
			evicted++
		}
	}
	return evicted
}

// Len returns the total number of stored tokens.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func copyToken(t *domain.PendingToken) *domain.PendingToken {
	c := *t
	c.Items = append([]string(nil), t.Items...)
	return &c
}
