package retry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCoordinator() *Coordinator {
	return NewCoordinator(zap.NewNop())
}

func TestExecuteRetry_NoRecordedAction(t *testing.T) {
	c := newTestCoordinator()

	var calls int32
	ok := c.ExecuteRetry(context.Background(), func(ctx context.Context, text, correlationID string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.False(t, ok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestExecuteRetry_DispatchesRecordedAction(t *testing.T) {
	c := newTestCoordinator()
	c.RecordLastAction("Tấn công kẻ địch", nil)

	var gotText, gotCorrelation string
	ok := c.ExecuteRetry(context.Background(), func(ctx context.Context, text, correlationID string) error {
		gotText = text
		gotCorrelation = correlationID
		return nil
	})

	assert.True(t, ok)
	assert.Equal(t, "Tấn công kẻ địch", gotText)
	assert.NotEmpty(t, gotCorrelation)
}

func TestExecuteRetry_DispatchFailure(t *testing.T) {
	c := newTestCoordinator()
	c.RecordLastAction("hành động", nil)

	ok := c.ExecuteRetry(context.Background(), func(ctx context.Context, text, correlationID string) error {
		return errors.New("boom")
	})

	assert.False(t, ok)
	// The guard must release even after a failed dispatch.
	assert.False(t, c.RetryInFlight())
}

func TestExecuteRetry_SingleFlight(t *testing.T) {
	c := newTestCoordinator()
	c.RecordLastAction("hành động", nil)

	var dispatches int32
	var successes int32
	release := make(chan struct{})

	const goroutines = 8
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			ok := c.ExecuteRetry(context.Background(), func(ctx context.Context, text, correlationID string) error {
				atomic.AddInt32(&dispatches, 1)
				<-release
				return nil
			})
			if ok {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}

	// Let the winner enter the dispatch and the losers hit the guard.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&dispatches))
	assert.Equal(t, int32(1), atomic.LoadInt32(&successes))
	assert.False(t, c.RetryInFlight())
}

func TestExecuteRetry_GuardReleasesBetweenSequentialRetries(t *testing.T) {
	c := newTestCoordinator()
	c.RecordLastAction("hành động", nil)

	dispatch := func(ctx context.Context, text, correlationID string) error { return nil }

	assert.True(t, c.ExecuteRetry(context.Background(), dispatch))
	assert.True(t, c.ExecuteRetry(context.Background(), dispatch))
}

func TestRecordLastAction_Overwrites(t *testing.T) {
	c := newTestCoordinator()
	c.RecordLastAction("đầu tiên", nil)
	c.RecordLastAction("thứ hai", []byte(`{"hp":10}`))

	action := c.LastAction()
	require.NotNil(t, action)
	assert.Equal(t, "thứ hai", action.Text)
	assert.JSONEq(t, `{"hp":10}`, string(action.Snapshot))
	assert.False(t, action.RecordedAt.IsZero())
}

func TestHandleFailure_NonRetryableReturnedUnchanged(t *testing.T) {
	c := newTestCoordinator()
	cause := errors.New("invalid input")

	var calls int32
	err := c.HandleFailure(context.Background(), "hành động", nil, cause, func(ctx context.Context, text, correlationID string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.Same(t, cause, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	// The action is still memoized for a later manual retry.
	require.NotNil(t, c.LastAction())
}

func TestHandleFailure_RetryableRetriedOnce(t *testing.T) {
	c := newTestCoordinator()
	cause := errors.New("timeout")

	var calls int32
	err := c.HandleFailure(context.Background(), "hành động", nil, cause, func(ctx context.Context, text, correlationID string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHandleFailure_RetryFailsSurfacesOriginalCause(t *testing.T) {
	c := newTestCoordinator()
	cause := errors.New("timeout")

	err := c.HandleFailure(context.Background(), "hành động", nil, cause, func(ctx context.Context, text, correlationID string) error {
		return errors.New("still down")
	})

	assert.Same(t, cause, err)
}

func TestHandleFailure_NilCause(t *testing.T) {
	c := newTestCoordinator()

	err := c.HandleFailure(context.Background(), "hành động", nil, nil, func(ctx context.Context, text, correlationID string) error {
		return nil
	})

	assert.NoError(t, err)
}
