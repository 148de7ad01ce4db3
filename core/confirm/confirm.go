// Package confirm implements the two-step protocol guarding destructive
// operations: a request describing the effect, then an explicit decision.
// The guarded mutation never starts before the decision is "confirmed",
// so cancelling has no effect at all.
//
// Two styles share one Gate. Ask blocks on a Confirmer (terminal prompts,
// tests); Submit and Resolve split the request from the decision for
// asynchronous presentation layers. At most one request is outstanding.
package confirm

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/artpar/warsztat/ports"
)

var (
	// ErrCancelled is returned when the decision was "cancel".
	ErrCancelled = errors.New("confirmation cancelled")

	// ErrPending is returned when a request is already outstanding.
	ErrPending = errors.New("another confirmation is pending")

	// ErrUnknownRequest is returned when resolving an id that is not the
	// outstanding request.
	ErrUnknownRequest = errors.New("unknown confirmation request")
)

// Prompt describes a destructive operation to the user.
type Prompt struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ConfirmText string `json:"confirmText"`
	Danger      bool   `json:"danger"`
}

// Intent is a guarded operation: what to ask and what to run once
// confirmed.
type Intent struct {
	Action string
	Prompt Prompt
	Run    func(ctx context.Context) error
}

// Confirmer obtains a decision for a prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm calls f.
func (f ConfirmerFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

var (
	// AlwaysConfirm approves every prompt.
	AlwaysConfirm Confirmer = ConfirmerFunc(func(context.Context, Prompt) (bool, error) { return true, nil })

	// AlwaysCancel rejects every prompt.
	AlwaysCancel Confirmer = ConfirmerFunc(func(context.Context, Prompt) (bool, error) { return false, nil })
)

// Pending is the outstanding request as seen by a presentation layer.
type Pending struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Prompt Prompt `json:"prompt"`
}

// Gate holds at most one outstanding request.
type Gate struct {
	mu      sync.Mutex
	pending *request
	ids     ports.IDGenerator
	seq     int
}

type request struct {
	Pending
	run func(ctx context.Context) error
}

// NewGate creates a gate. Request ids come from ids, or a counter when
// ids is nil.
func NewGate(ids ports.IDGenerator) *Gate {
	return &Gate{ids: ids}
}

// Submit registers in as the outstanding request.
func (g *Gate) Submit(in Intent) (Pending, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		return Pending{}, ErrPending
	}
	g.pending = &request{
		Pending: Pending{ID: g.nextID(), Action: in.Action, Prompt: in.Prompt},
		run:     in.Run,
	}
	return g.pending.Pending, nil
}

// Current returns the outstanding request.
func (g *Gate) Current() (Pending, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return Pending{}, false
	}
	return g.pending.Pending, true
}

// Resolve settles the outstanding request id. When confirmed the operation
// runs and its error is returned; ran reports whether it was started.
// Cancelling returns ErrCancelled.
func (g *Gate) Resolve(ctx context.Context, id string, confirmed bool) (ran bool, err error) {
	g.mu.Lock()
	req := g.pending
	if req == nil || req.ID != id {
		g.mu.Unlock()
		return false, ErrUnknownRequest
	}
	g.pending = nil
	g.mu.Unlock()

	if !confirmed {
		return false, ErrCancelled
	}
	if req.run == nil {
		return true, nil
	}
	return true, req.run(ctx)
}

// Ask submits in, blocks on c for the decision and resolves it.
func (g *Gate) Ask(ctx context.Context, c Confirmer, in Intent) error {
	p, err := g.Submit(in)
	if err != nil {
		return err
	}

	ok, err := c.Confirm(ctx, p.Prompt)
	if err != nil {
		g.discard(p.ID)
		return err
	}
	_, err = g.Resolve(ctx, p.ID, ok)
	return err
}

func (g *Gate) discard(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil && g.pending.ID == id {
		g.pending = nil
	}
}

func (g *Gate) nextID() string {
	if g.ids != nil {
		return g.ids.New()
	}
	g.seq++
	return "confirm-" + strconv.Itoa(g.seq)
}
