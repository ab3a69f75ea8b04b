package contact

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/site-web/internal/cms"
)

// Fetcher retrieves the live properties of a content block.
type Fetcher interface {
	Page(ctx context.Context, content, locale string) (cms.Payload, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, content, locale string) (cms.Payload, error)

// Page implements Fetcher.
func (f FetcherFunc) Page(ctx context.Context, content, locale string) (cms.Payload, error) {
	return f(ctx, content, locale)
}

// Outcome reports what a refresh did to the held payload.
type Outcome int

const (
	// OutcomePending means no refresh has completed yet.
	OutcomePending Outcome = iota
	// OutcomeSwapped means a different live payload replaced the held one.
	OutcomeSwapped
	// OutcomeUnchanged means the live payload equalled the held one.
	OutcomeUnchanged
	// OutcomeFailed means the live request errored; nothing changed.
	OutcomeFailed
	// OutcomeCancelled means the view was torn down before the result applied.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSwapped:
		return "swapped"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// View holds the contact page payload for a single page view and refreshes
// it at most once from the live CMS when mounted.
type View struct {
	fetcher Fetcher
	locale  string
	logger  *zap.Logger

	life     context.Context
	teardown context.CancelFunc

	mountOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	payload cms.Payload
	outcome Outcome
}

// NewView seeds a view with the build-time payload.
func NewView(initial cms.Payload, fetcher Fetcher, locale string, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	life, cancel := context.WithCancel(context.Background())
	return &View{
		fetcher:  fetcher,
		locale:   locale,
		logger:   logger,
		life:     life,
		teardown: cancel,
		done:     make(chan struct{}),
		payload:  initial.Clone(),
	}
}

// Refresh fetches the live payload and swaps it in when it differs from the
// held one. Errors leave the payload untouched. Calling Refresh again with an
// unchanged CMS is a no-op.
func (v *View) Refresh(ctx context.Context) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(v.life, cancel)
	defer stop()

	if ctx.Err() != nil || v.life.Err() != nil {
		return v.record(OutcomeCancelled)
	}

	var (
		next cms.Payload
		err  error
	)
	if v.fetcher == nil {
		err = cms.ErrNoEndpoint
	} else {
		next, err = v.fetcher.Page(ctx, cms.ContactPage, v.locale)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if ctx.Err() != nil || v.life.Err() != nil {
		v.outcome = OutcomeCancelled
		return v.outcome
	}
	if err != nil {
		v.logger.Debug("contact refresh failed", zap.String("locale", v.locale), zap.Error(err))
		v.outcome = OutcomeFailed
		return v.outcome
	}
	if cms.Equal(v.payload, next) {
		v.outcome = OutcomeUnchanged
		return v.outcome
	}
	v.payload = next.Clone()
	v.outcome = OutcomeSwapped
	v.logger.Debug("contact payload swapped", zap.String("locale", v.locale), zap.String("digest", v.payload.Digest()))
	return v.outcome
}

func (v *View) record(o Outcome) Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outcome = o
	return o
}

// Mount schedules the one-shot refresh. Only the first call has an effect.
// The refresh is cancelled when ctx ends or the view is closed.
func (v *View) Mount(ctx context.Context) {
	v.mountOnce.Do(func() {
		go func() {
			defer close(v.done)
			v.Refresh(ctx)
		}()
	})
}

// Close tears the view down, cancelling an in-flight refresh.
func (v *View) Close() {
	v.teardown()
}

// Done is closed once the mounted refresh has finished. It never closes for
// a view that was not mounted.
func (v *View) Done() <-chan struct{} { return v.done }

// Outcome returns the result of the most recent refresh.
func (v *View) Outcome() Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.outcome
}

// Payload returns a copy of the currently held payload.
func (v *View) Payload() cms.Payload {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.payload.Clone()
}
