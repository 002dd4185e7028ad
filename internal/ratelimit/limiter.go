// Package ratelimit bounds request volume per caller identity and action
// class. State lives in process memory inside an explicit, constructor-
// injected Store; entries are pruned lazily on each lookup.
package ratelimit

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Action classifies the kind of request being limited.
type Action string

const (
	ActionGeneration      Action = "generation"
	ActionSaveInstruction Action = "save-instruction"
	ActionGeneral         Action = "general"
)

// Reason explains a rate decision.
type Reason string

const (
	ReasonOK            Reason = "ok"
	ReasonBlocked       Reason = "blocked"
	ReasonLimitExceeded Reason = "limit_exceeded"
)

// Policy configures one action class.
type Policy struct {
	Requests int           // ceiling within the window
	Window   time.Duration // sliding window length
	BlockFor time.Duration // block installed once the ceiling is hit
}

// DefaultPolicies returns the built-in limits per action class.
func DefaultPolicies() map[Action]Policy {
	return map[Action]Policy{
		ActionGeneration:      {Requests: 10, Window: time.Minute, BlockFor: 5 * time.Minute},
		ActionSaveInstruction: {Requests: 20, Window: time.Minute, BlockFor: 2 * time.Minute},
		ActionGeneral:         {Requests: 100, Window: time.Minute, BlockFor: time.Minute},
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Reason     Reason
	RetryAfter time.Duration
	Remaining  int
	Limit      int
	ResetAt    time.Time
}

// LimitError is returned by the pipeline when a request is denied.
type LimitError struct {
	Decision Decision
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.Decision.RetryAfter)
}

// Store holds attempt and block state for all identities. Safe for
// concurrent use: each bucket carries its own mutex so unrelated callers
// never serialize on one lock.
type Store struct {
	mu       sync.Mutex
	policies map[Action]Policy
	buckets  map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	mu           sync.Mutex
	attempts     []time.Time
	blockedUntil time.Time
}

// NewStore creates a store with the given policies. Nil policies fall back
// to DefaultPolicies.
func NewStore(policies map[Action]Policy) *Store {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Store{
		policies: policies,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Allow checks whether the identity may perform the action and, when
// admitted, records the attempt. Checking and recording happen atomically
// under the bucket lock so concurrent calls for one identity cannot both
// take the last slot.
func (s *Store) Allow(identity Identity, action Action) Decision {
	policy := s.policy(action)
	b := s.bucket(identity, action)
	now := s.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.blockedUntil.After(now) {
		return Decision{
			Allowed:    false,
			Reason:     ReasonBlocked,
			RetryAfter: b.blockedUntil.Sub(now),
			Remaining:  0,
			Limit:      policy.Requests,
			ResetAt:    b.blockedUntil,
		}
	}
	b.blockedUntil = time.Time{}

	b.prune(now.Add(-policy.Window))

	if len(b.attempts) >= policy.Requests {
		b.blockedUntil = now.Add(policy.BlockFor)
		return Decision{
			Allowed:    false,
			Reason:     ReasonLimitExceeded,
			RetryAfter: policy.BlockFor,
			Remaining:  0,
			Limit:      policy.Requests,
			ResetAt:    b.blockedUntil,
		}
	}

	b.attempts = append(b.attempts, now)

	return Decision{
		Allowed:   true,
		Reason:    ReasonOK,
		Remaining: policy.Requests - len(b.attempts),
		Limit:     policy.Requests,
		ResetAt:   b.attempts[0].Add(policy.Window),
	}
}

// Record registers an attempt without an admission check.
func (s *Store) Record(identity Identity, action Action) {
	policy := s.policy(action)
	b := s.bucket(identity, action)
	now := s.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = append(b.attempts, now)
	b.prune(now.Add(-policy.Window))
}

// Block denies the identity for the given duration regardless of its
// attempt history.
func (s *Store) Block(identity Identity, action Action, d time.Duration) {
	b := s.bucket(identity, action)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blockedUntil = s.now().Add(d)
}

func (s *Store) policy(action Action) Policy {
	if p, ok := s.policies[action]; ok {
		return p
	}
	return s.policies[ActionGeneral]
}

func (s *Store) bucket(identity Identity, action Action) *bucket {
	key := string(identity) + ":" + string(action)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{}
		s.buckets[key] = b
	}
	return b
}

// prune drops attempts older than the window start. Caller holds b.mu.
func (b *bucket) prune(windowStart time.Time) {
	kept := b.attempts[:0]
	for _, ts := range b.attempts {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	b.attempts = kept
}

// Headers renders a decision as conventional X-RateLimit response headers.
func Headers(d Decision) map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":       strconv.Itoa(d.Limit),
		"X-RateLimit-Remaining":   strconv.Itoa(d.Remaining),
		"X-RateLimit-Reset":       strconv.FormatInt(d.ResetAt.Unix(), 10),
		"X-RateLimit-Retry-After": strconv.Itoa(int(d.RetryAfter.Seconds())),
	}
}
