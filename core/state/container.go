package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/warsztat/ports"
)

var (
	// ErrNoStore is returned by Open when no document store is configured.
	ErrNoStore = errors.New("state: document store is required")

	// ErrUnchanged may be returned by an Update callback to finish without
	// writing anything. Update then returns nil.
	ErrUnchanged = errors.New("state: unchanged")
)

// Config configures a Container.
type Config struct {
	Store    ports.DocumentStore
	Key      string // defaults to DefaultKey
	Clock    ports.Clock
	IDs      ports.IDGenerator
	Observer ports.Observer
	Logger   zerolog.Logger
}

// Container owns the AppState and serializes every mutation.
type Container struct {
	mu       sync.RWMutex
	state    AppState
	store    ports.DocumentStore
	key      string
	clock    ports.Clock
	ids      ports.IDGenerator
	observer ports.Observer
	logger   zerolog.Logger
}

// Open loads the state document from the store, repairing it as needed,
// and writes the result back.
func Open(ctx context.Context, cfg Config) (*Container, error) {
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.IDs == nil {
		return nil, errors.New("state: id generator is required")
	}
	if cfg.Observer == nil {
		cfg.Observer = ports.NopObserver{}
	}

	c := &Container{
		store:    cfg.Store,
		key:      cfg.Key,
		clock:    cfg.Clock,
		ids:      cfg.IDs,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Load replaces the in-memory state with the stored document. A missing
// document yields a fresh state; an unparsable one is logged and replaced.
// Only store failures are returned.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	data, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	next := Initial(now)
	if ok {
		st, repairs, err := Decode(data, now, c.ids)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("key", c.key).Msg("stored state unreadable, starting fresh")
		default:
			next = st
			if len(repairs) > 0 {
				c.logger.Warn().Strs("repairs", repairs).Str("key", c.key).Msg("stored state repaired")
			}
		}
	}

	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.state = next
	c.logger.Debug().Str("key", c.key).Bool("found", ok).Msg("state loaded")
	return nil
}

// Update runs fn against a private copy of the state. If fn succeeds the
// copy is flushed to the store and becomes current; if fn or the flush
// fails the state is left untouched. Updates never interleave.
func (c *Container) Update(ctx context.Context, fn func(st *AppState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.Clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}
	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// View calls fn with the current state under a read lock.
// fn must not modify or retain the state.
func (c *Container) View(fn func(st *AppState)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(&c.state)
}

// Snapshot returns a deep copy of the current state.
func (c *Container) Snapshot() AppState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Export serializes the current state as an indented JSON document.
func (c *Container) Export() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := json.MarshalIndent(c.state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export state: %w", err)
	}
	return data, nil
}

// Parse decodes an import document. Unlike Load it fails on documents
// that are empty or not JSON, wrapping ErrMalformedInput.
func (c *Container) Parse(data []byte) (AppState, error) {
	st, repairs, err := Decode(data, c.clock.Now(), c.ids)
	if err != nil {
		return AppState{}, err
	}
	if len(repairs) > 0 {
		c.logger.Debug().Strs("repairs", repairs).Msg("import document completed with defaults")
	}
	return st, nil
}

// Replace swaps in st wholesale.
func (c *Container) Replace(ctx context.Context, st AppState) error {
	return c.Update(ctx, func(cur *AppState) error {
		*cur = st.Clone()
		return nil
	})
}

// Reset discards all data and starts over with a fresh state.
func (c *Container) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := Initial(c.clock.Now())
	if err := c.persist(ctx, next); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	c.state = next
	return nil
}

// Now returns the current time formatted for record timestamps.
func (c *Container) Now() string {
	return FormatTime(c.clock.Now())
}

// NewID returns a fresh record id.
func (c *Container) NewID() string {
	return c.ids.New()
}

func (c *Container) persist(ctx context.Context, st AppState) error {
	start := time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		c.observer.Persisted(time.Since(start), 0, err)
		return fmt.Errorf("encode state: %w", err)
	}

	err = c.store.Put(ctx, c.key, data)
	c.observer.Persisted(time.Since(start), len(data), err)
	if err != nil {
		c.logger.Error().Err(err).Str("key", c.key).Msg("state flush failed")
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
