package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	store, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newStore(t, Config{})

	id, state, err := store.Create()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, calculator.DefaultRates(), state.Rates)

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestCreateUsesConfiguredDefaults(t *testing.T) {
	defaults, err := calculator.NewRateTable(map[currency.Code]float64{currency.INR: 2.5, currency.USD: 0.03})
	require.NoError(t, err)
	store := newStore(t, Config{Defaults: defaults})

	_, state, err := store.Create()
	require.NoError(t, err)
	assert.Equal(t, defaults, state.Rates)
	assert.Equal(t, defaults, state.Reset().Rates)
}

func TestApply(t *testing.T) {
	store := newStore(t, Config{})
	id, _, err := store.Create()
	require.NoError(t, err)

	state, err := store.Apply(id, func(s calculator.State) (calculator.State, error) {
		return s.SetAmount("100").Calculate(), nil
	})
	require.NoError(t, err)
	require.True(t, state.HasResult())

	stored, err := store.Get(id)
	require.NoError(t, err)
	assert.InDelta(t, 290.0, stored.Result.Amount(currency.INR), 1e-9)

	ignored := errors.New("ignored")
	_, err = store.Apply(id, func(s calculator.State) (calculator.State, error) {
		return s.ToggleSettings(), ignored
	})
	assert.ErrorIs(t, err, ignored)

	stored, err = store.Get(id)
	require.NoError(t, err)
	assert.True(t, stored.SettingsOpen)
}

func TestApplySerializesActions(t *testing.T) {
	store := newStore(t, Config{})
	id, _, err := store.Create()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Apply(id, func(s calculator.State) (calculator.State, error) {
				return s.ToggleSettings(), nil
			})
		}()
	}
	wg.Wait()

	state, err := store.Get(id)
	require.NoError(t, err)
	assert.False(t, state.SettingsOpen, "an even number of toggles must leave the panel closed")
}

func TestUnknownSession(t *testing.T) {
	store := newStore(t, Config{})

	_, err := store.Get(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Apply("not-a-uuid", func(s calculator.State) (calculator.State, error) { return s, nil })
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(uuid.NewString()), ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newStore(t, Config{})
	id, _, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, store.Delete(id))
	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDuringApply(t *testing.T) {
	store := newStore(t, Config{})
	id, _, err := store.Create()
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	applied := make(chan error, 1)
	go func() {
		_, err := store.Apply(id, func(s calculator.State) (calculator.State, error) {
			close(started)
			<-release
			return s.SetAmount("100").Calculate(), nil
		})
		applied <- err
	}()

	<-started
	deleted := make(chan error, 1)
	go func() {
		deleted <- store.Delete(id)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-applied)
	require.NoError(t, <-deleted)
	store.cache.Wait()

	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Apply(id, func(s calculator.State) (calculator.State, error) { return s, nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(id), ErrNotFound)
}

func TestDroppedEntryIsNotRestored(t *testing.T) {
	store := newStore(t, Config{})
	id, _, err := store.Create()
	require.NoError(t, err)

	// the cache marks entries this way when it evicts them
	e, err := store.lookup(id)
	require.NoError(t, err)
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()

	called := false
	_, err = store.Apply(id, func(s calculator.State) (calculator.State, error) {
		called = true
		return s, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)

	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(id), ErrNotFound)
}

func TestSessionLimitIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store, err := New(Config{MaxSessions: 2}, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	const created = 20
	ids := make([]string, 0, created)
	for i := 0; i < created; i++ {
		id, _, err := store.Create()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	store.cache.Wait()

	live := 0
	for _, id := range ids {
		if _, err := store.Get(id); err == nil {
			live++
		}
	}
	dropped := logs.FilterMessage("session evicted, session limit reached").Len() +
		logs.FilterMessage("session rejected, session limit reached").Len()

	assert.LessOrEqual(t, live, 2)
	assert.Equal(t, created, live+dropped, "every session over the limit must be reported")
}

func TestSessionExpires(t *testing.T) {
	store := newStore(t, Config{TTL: 50 * time.Millisecond})
	id, _, err := store.Create()
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)

	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}
