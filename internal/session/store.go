// Package session keeps calculator sessions in memory for the HTTP API.
// Each session owns a calculator.State; actions on one session are applied
// one at a time and sessions never share state.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/pkg/constants"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Config controls session retention.
type Config struct {
	TTL         time.Duration
	MaxSessions int64
	Defaults    calculator.RateTable
}

// Action is a reducer step applied to a session's state.
type Action func(calculator.State) (calculator.State, error)

type entry struct {
	mu    sync.Mutex
	state calculator.State
	// deleted is set once the session has left the cache; a removed
	// entry is never stored again.
	deleted bool
}

// Store is a TTL-bounded set of calculator sessions.
type Store struct {
	cache       *ristretto.Cache
	ttl         time.Duration
	maxSessions int64
	defaults    calculator.RateTable
	logger      *zap.Logger
}

// New creates a session store.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.DefaultSessionTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = constants.DefaultMaxSessions
	}
	if cfg.Defaults.IsZero() {
		cfg.Defaults = calculator.DefaultRates()
	}

	s := &Store{
		ttl:         cfg.TTL,
		maxSessions: cfg.MaxSessions,
		defaults:    cfg.Defaults,
		logger:      logger,
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * cfg.MaxSessions,
		MaxCost:     cfg.MaxSessions,
		BufferItems: 64,
		// every session costs 1 so MaxCost bounds the session count
		IgnoreInternalCost: true,
		OnEvict:            s.onEvict,
		OnReject:           s.onReject,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache failed: %w", err)
	}
	s.cache = c

	return s, nil
}

// onEvict marks sessions dropped by the cache, either on expiry or because
// MaxSessions was reached, so in-flight actions cannot bring them back.
func (s *Store) onEvict(item *ristretto.Item) {
	if !s.drop(item) {
		return
	}
	if !item.Expiration.IsZero() && !time.Now().Before(item.Expiration) {
		s.logger.Debug("session expired", zap.String("op", "session.onEvict"))
		return
	}
	s.logger.Warn("session evicted, session limit reached",
		zap.String("op", "session.onEvict"),
		zap.Int64("max_sessions", s.maxSessions),
	)
}

// onReject reports new sessions the cache refused to admit at capacity.
func (s *Store) onReject(item *ristretto.Item) {
	if !s.drop(item) {
		return
	}
	s.logger.Warn("session rejected, session limit reached",
		zap.String("op", "session.onReject"),
		zap.Int64("max_sessions", s.maxSessions),
	)
}

// drop marks the item's session as gone and reports whether the item held
// one; queued deletes replayed on Close carry no value.
func (s *Store) drop(item *ristretto.Item) bool {
	e, ok := item.Value.(*entry)
	if !ok {
		return false
	}
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return true
}

// Create starts a new session and returns its id and initial state.
func (s *Store) Create() (string, calculator.State, error) {
	id := uuid.NewString()
	e := &entry{state: calculator.NewState(s.defaults)}
	if !s.cache.SetWithTTL(id, e, 1, s.ttl) {
		return "", calculator.State{}, fmt.Errorf("session %s was not admitted", id)
	}
	s.cache.Wait()

	s.logger.Debug("session created",
		zap.String("op", "session.Create"),
		zap.String("session", id),
	)
	return id, e.state, nil
}

// Get returns the current state of a session.
func (s *Store) Get(id string) (calculator.State, error) {
	e, err := s.lookup(id)
	if err != nil {
		return calculator.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return calculator.State{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.state, nil
}

// Apply runs action against the session's state and stores the state it
// returns. The action's error is passed through; the returned state is
// stored regardless so reducers that report ignored updates still commit.
// Access to the session refreshes its expiry. A session deleted before the
// action could run reports ErrNotFound.
func (s *Store) Apply(id string, action Action) (calculator.State, error) {
	e, err := s.lookup(id)
	if err != nil {
		return calculator.State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return calculator.State{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, actionErr := action(e.state)
	e.state = next

	// refreshed under e.mu so a concurrent Delete is queued after it;
	// SetWithTTL never blocks
	s.cache.SetWithTTL(id, e, 1, s.ttl)
	return next, actionErr
}

// Delete removes a session. It waits for a running action on the session
// to finish; that action's state is discarded.
func (s *Store) Delete(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.deleted = true
	e.mu.Unlock()

	// queued after any refresh made by an action that held e.mu; Del may
	// block on the cache's buffer, and eviction callbacks take e.mu
	s.cache.Del(id)
	s.cache.Wait()
	s.logger.Debug("session deleted",
		zap.String("op", "session.Delete"),
		zap.String("session", id),
	)
	return nil
}

// Close stops the cache's background goroutines.
func (s *Store) Close() {
	s.cache.Close()
}

func (s *Store) lookup(id string) (*entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e, ok := v.(*entry)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}
