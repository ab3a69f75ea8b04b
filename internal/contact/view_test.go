package contact

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/site-web/internal/cms"
)

func staticFetcher(p cms.Payload, err error) (Fetcher, *atomic.Int32) {
	var calls atomic.Int32
	return FetcherFunc(func(ctx context.Context, content, locale string) (cms.Payload, error) {
		calls.Add(1)
		if content != cms.ContactPage {
			return cms.Payload{}, errors.New("unexpected content " + content)
		}
		return p.Clone(), err
	}), &calls
}

func TestRefreshSwapsDifferentPayload(t *testing.T) {
	initial := payload(prop(PropTitle, "Contact"))
	live := payload(prop(PropTitle, "Contact Us"))
	fetcher, calls := staticFetcher(live, nil)

	view := NewView(initial, fetcher, "en", nil)
	require.Equal(t, "Contact", Build(view.Payload(), echo, "en").Title)

	require.Equal(t, OutcomeSwapped, view.Refresh(context.Background()))
	require.Equal(t, "Contact Us", Build(view.Payload(), echo, "en").Title)
	require.Equal(t, OutcomeSwapped, view.Outcome())

	// a second refresh sees an equal payload and changes nothing
	require.Equal(t, OutcomeUnchanged, view.Refresh(context.Background()))
	require.EqualValues(t, 2, calls.Load())
}

func TestRefreshEqualPayloadIsNoop(t *testing.T) {
	initial := payload(prop(PropTitle, "Contact"), prop(PropImage, "/a.jpg"))
	fetcher, _ := staticFetcher(initial, nil)

	view := NewView(initial, fetcher, "en", nil)
	require.Equal(t, OutcomeUnchanged, view.Refresh(context.Background()))
	require.True(t, cms.Equal(initial, view.Payload()))
}

func TestRefreshErrorKeepsBuildPayload(t *testing.T) {
	initial := payload(prop(PropTitle, "Contact"))
	fetcher, _ := staticFetcher(payload(prop(PropTitle, "Other")), &cms.StatusError{Status: 500})

	view := NewView(initial, fetcher, "en", nil)
	require.Equal(t, OutcomeFailed, view.Refresh(context.Background()))
	require.Equal(t, "Contact", Build(view.Payload(), echo, "en").Title)
}

func TestRefreshWithoutFetcherFails(t *testing.T) {
	view := NewView(payload(prop(PropTitle, "Contact")), nil, "en", nil)
	require.Equal(t, OutcomeFailed, view.Refresh(context.Background()))
}

func TestRefreshPassesLocale(t *testing.T) {
	var seen string
	fetcher := FetcherFunc(func(ctx context.Context, content, locale string) (cms.Payload, error) {
		seen = locale
		return cms.Payload{}, nil
	})
	view := NewView(cms.Payload{}, fetcher, "uk", nil)
	require.Equal(t, OutcomeUnchanged, view.Refresh(context.Background()))
	require.Equal(t, "uk", seen)
}

func TestMountRunsOnce(t *testing.T) {
	fetcher, calls := staticFetcher(payload(prop(PropTitle, "Contact Us")), nil)
	view := NewView(payload(prop(PropTitle, "Contact")), fetcher, "en", nil)

	view.Mount(context.Background())
	view.Mount(context.Background())
	waitDone(t, view)

	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, OutcomeSwapped, view.Outcome())
	require.Equal(t, "Contact Us", view.Payload().Page.String(PropTitle))
}

func TestCloseDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fetcher := FetcherFunc(func(ctx context.Context, content, locale string) (cms.Payload, error) {
		close(started)
		<-release
		// the result arrives even though the view is gone
		return payload(prop(PropTitle, "Contact Us")), nil
	})
	view := NewView(payload(prop(PropTitle, "Contact")), fetcher, "en", nil)

	view.Mount(context.Background())
	<-started
	view.Close()
	close(release)
	waitDone(t, view)

	require.Equal(t, OutcomeCancelled, view.Outcome())
	require.Equal(t, "Contact", view.Payload().Page.String(PropTitle))
}

func TestParentCancellationStopsRefresh(t *testing.T) {
	fetcher := FetcherFunc(func(ctx context.Context, content, locale string) (cms.Payload, error) {
		<-ctx.Done()
		return cms.Payload{}, ctx.Err()
	})
	view := NewView(payload(prop(PropTitle, "Contact")), fetcher, "en", nil)

	ctx, cancel := context.WithCancel(context.Background())
	view.Mount(ctx)
	cancel()
	waitDone(t, view)

	require.Equal(t, OutcomeCancelled, view.Outcome())
	require.Equal(t, "Contact", view.Payload().Page.String(PropTitle))
}

func TestRefreshAfterCloseIsCancelled(t *testing.T) {
	fetcher, calls := staticFetcher(payload(prop(PropTitle, "Contact Us")), nil)
	view := NewView(payload(prop(PropTitle, "Contact")), fetcher, "en", nil)
	view.Close()

	require.Equal(t, OutcomeCancelled, view.Refresh(context.Background()))
	require.Zero(t, calls.Load())
}

func TestPayloadIsACopy(t *testing.T) {
	view := NewView(payload(prop(PropTitle, "Contact")), nil, "en", nil)
	p := view.Payload()
	p.Page[0].Value = "mutated"
	require.Equal(t, "Contact", view.Payload().Page.String(PropTitle))
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "pending", OutcomePending.String())
	require.Equal(t, "swapped", OutcomeSwapped.String())
	require.Equal(t, "cancelled", OutcomeCancelled.String())
}

func waitDone(t *testing.T, v *View) {
	t.Helper()
	select {
	case <-v.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not finish")
	}
}
