package brandsearch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Origin says which search mode produced a set of results.
type Origin string

const (
	// OriginSemantic marks vector search results.
	OriginSemantic Origin = "semantic"
	// OriginKeyword marks substring fallback results.
	OriginKeyword Origin = "keyword"
)

const (
	// DefaultDebounce is how long the orchestrator waits after the last
	// keystroke before issuing a request.
	DefaultDebounce = 400 * time.Millisecond
	// MinQueryLength is the minimum trimmed query length that triggers a
	// search. Shorter input clears the current results.
	MinQueryLength = 3
)

// Update is one state change pushed to the consumer. Seq increases with
// every issued request; updates always arrive in Seq order because stale
// responses are discarded, never delivered late.
type Update struct {
	Seq     uint64
	Query   string
	Origin  Origin
	Results []Result
	Err     error
}

// Searcher is the API surface the orchestrator drives. *Client implements it.
type Searcher interface {
	SemanticSearch(ctx context.Context, query string) ([]Result, error)
	KeywordSearch(ctx context.Context, query string) ([]Result, error)
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// Timeout bounds each search request (default: DefaultTimeout).
	Timeout time.Duration
}

// Orchestrator turns a stream of keystrokes into at most one in-flight
// search. Each accepted query gets a sequence number; issuing a new request
// cancels the previous one, and a response is dropped unless its sequence
// number is still the latest. Keyword fallback runs only when semantic
// search succeeds with zero results, never when it fails.
type Orchestrator struct {
	client   Searcher
	onUpdate func(Update)
	debounce time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewOrchestrator creates an orchestrator that pushes state changes to
// onUpdate. onUpdate is called from the request goroutine, one call at a
// time, in sequence order.
func NewOrchestrator(client Searcher, onUpdate func(Update), opts OrchestratorOptions) *Orchestrator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Orchestrator{
		client:   client,
		onUpdate: onUpdate,
		debounce: debounce,
		timeout:  timeout,
	}
}

// SetQuery feeds the current input value. Every call resets the debounce
// window. Input shorter than MinQueryLength cancels any pending or
// in-flight work and clears the results immediately.
func (o *Orchestrator) SetQuery(query string) {
	trimmed := strings.TrimSpace(query)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.stopPendingLocked()

	if len([]rune(trimmed)) < MinQueryLength {
		o.seq++
		o.emitLocked(Update{Seq: o.seq, Query: trimmed, Results: []Result{}})

		return
	}

	o.timer = time.AfterFunc(o.debounce, func() {
		o.fire(trimmed)
	})
}

// Flush runs the pending query immediately, skipping the rest of the
// debounce window. Used when the caller submits explicitly (e.g. Enter).
func (o *Orchestrator) Flush() {
	o.mu.Lock()

	timer := o.timer
	o.timer = nil

	o.mu.Unlock()

	if timer != nil && timer.Stop() {
		// The timer had not fired yet; run its work now.
		timer.Reset(0)
	}
}

// Close cancels all pending and in-flight work. No updates are delivered
// after Close returns.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopPendingLocked()
	o.closed = true
}

func (o *Orchestrator) stopPendingLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// fire issues the request for a debounced query. It claims the next
// sequence number and cancels any still-running predecessor.
func (o *Orchestrator) fire(query string) {
	o.mu.Lock()

	if o.closed {
		o.mu.Unlock()

		return
	}

	if o.cancel != nil {
		o.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	o.cancel = cancel
	o.seq++
	seq := o.seq

	o.mu.Unlock()

	defer cancel()

	results, origin, err := o.search(ctx, query)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || seq != o.seq {
		// A newer query superseded this one while it was in flight.
		return
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		// Cancelled before its replacement fired; discard rather than
		// surface the cancellation as a failure.
		return
	}

	o.cancel = nil
	o.emitLocked(Update{Seq: seq, Query: query, Origin: origin, Results: results, Err: err})
}

func (o *Orchestrator) search(ctx context.Context, query string) ([]Result, Origin, error) {
	results, err := o.client.SemanticSearch(ctx, query)
	if err != nil {
		// Failure is not "no results": surface it instead of silently
		// degrading to keyword matching.
		return nil, OriginSemantic, err
	}

	if len(results) > 0 {
		return results, OriginSemantic, nil
	}

	fallback, err := o.client.KeywordSearch(ctx, query)
	if err != nil {
		return nil, OriginKeyword, err
	}

	return fallback, OriginKeyword, nil
}

func (o *Orchestrator) emitLocked(update Update) {
	if o.onUpdate == nil {
		return
	}

	if update.Results == nil && update.Err == nil {
		update.Results = []Result{}
	}

	o.onUpdate(update)
}

// IsTimeout reports whether a search failed because it exceeded its
// deadline, so callers can show a dedicated message.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
