package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the poller sleeps
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.t = c.t.Add(d)
	return nil
}

func newTestPoller(responses []string, valid map[string]bool) (*operationPoller, *int) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	polls := 0
	p := &operationPoller{
		operationID: "op-1",
		interval:    3 * time.Second,
		timeout:     10 * time.Second,
		fetch: func(ctx context.Context) ([]byte, error) {
			i := polls
			polls++
			if i >= len(responses) {
				i = len(responses) - 1
			}
			if responses[i] == "" {
				return nil, errors.New("connection reset")
			}
			return []byte(responses[i]), nil
		},
		validate: func(ctx context.Context, id string) bool { return valid[id] },
		now:      clock.now,
		sleep:    clock.sleep,
	}
	return p, &polls
}

func TestEvaluateTransitions(t *testing.T) {
	p, _ := newTestPoller(nil, map[string]bool{"123": true})
	ctx := context.Background()

	cases := []struct {
		name  string
		body  string
		state OperationState
		id    string
	}{
		{"id before status", `{"status":"pending","assetId":"123"}`, OperationResolved, "123"},
		{"nested path when done", `{"done":true,"response":{"path":"assets/123/versions/1"}}`, OperationResolved, "123"},
		{"pending", `{"done":false}`, OperationPending, ""},
		{"unvalidated id keeps pending", `{"status":"pending","assetId":"999"}`, OperationPending, ""},
		{"error field", `{"error":{"code":3,"message":"moderation rejected"}}`, OperationFailed, ""},
		{"done without id", `{"status":"Completed"}`, OperationFailed, ""},
		{"done string true", `{"done":"true"}`, OperationFailed, ""},
		{"done with unvalidated id", `{"done":true,"assetId":"999"}`, OperationFailed, ""},
		{"null error is ignored", `{"error":null,"state":"running"}`, OperationPending, ""},
		{"garbage body", `not json`, OperationPending, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := p.evaluate(ctx, []byte(tc.body))
			assert.Equal(t, tc.state, out.State)
			assert.Equal(t, tc.id, out.AssetID)
			if tc.state == OperationFailed {
				var opErr *OperationError
				require.True(t, errors.As(out.Err, &opErr))
				assert.Equal(t, "op-1", opErr.OperationID)
			} else {
				assert.NoError(t, out.Err)
			}
		})
	}
}

func TestRunResolvesWhileStatusPending(t *testing.T) {
	p, polls := newTestPoller([]string{
		`{"status":"pending"}`,
		`{"status":"pending","assetId":456}`,
	}, map[string]bool{"456": true})

	id, err := p.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "456", id)
	assert.Equal(t, 2, *polls)
}

func TestRunFailsOnErrorField(t *testing.T) {
	p, _ := newTestPoller([]string{`{"error":"quota exceeded"}`}, nil)

	_, err := p.run(context.Background())
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "quota exceeded", opErr.Reason)
}

func TestRunFailsWhenCompletedWithoutID(t *testing.T) {
	p, _ := newTestPoller([]string{`{"done":false}`, `{"done":true}`}, nil)

	_, err := p.run(context.Background())
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "completed without asset id", opErr.Reason)
}

func TestRunTimesOut(t *testing.T) {
	p, polls := newTestPoller([]string{`{"status":"pending"}`}, nil)

	_, err := p.run(context.Background())
	require.ErrorIs(t, err, ErrOperationTimeout)
	// polls at 0s, 3s, 6s and 9s; the 12s check exceeds the 10s timeout
	assert.Equal(t, 4, *polls)
}

func TestRunKeepsPollingThroughFailedPolls(t *testing.T) {
	p, polls := newTestPoller([]string{"", "", `{"done":true,"response":{"assetId":"7"}}`}, map[string]bool{"7": true})

	id, err := p.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7", id)
	assert.Equal(t, 3, *polls)
}

func TestAwaitAssetTimesOutWhenNeverValid(t *testing.T) {
	p, _ := newTestPoller(nil, nil)

	_, err := p.awaitAsset(context.Background(), "5")
	require.ErrorIs(t, err, ErrOperationTimeout)
}

func TestOperationStateString(t *testing.T) {
	assert.Equal(t, "PENDING", OperationPending.String())
	assert.Equal(t, "TIMED_OUT", OperationTimedOut.String())
}

func TestRunTimeoutBoundsInFlightFetch(t *testing.T) {
	p := &operationPoller{
		operationID: "op-slow",
		interval:    10 * time.Millisecond,
		timeout:     100 * time.Millisecond,
		fetch: func(ctx context.Context) ([]byte, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
				return []byte(`{"done":false}`), nil
			}
		},
		validate: func(ctx context.Context, id string) bool { return false },
		now:      time.Now,
		sleep:    sleepContext,
	}

	started := time.Now()
	_, err := p.run(context.Background())
	require.ErrorIs(t, err, ErrOperationTimeout)
	assert.Less(t, time.Since(started), time.Second)
}

func TestAwaitAssetTimeoutBoundsInFlightValidation(t *testing.T) {
	p := &operationPoller{
		interval: 10 * time.Millisecond,
		timeout:  100 * time.Millisecond,
		validate: func(ctx context.Context, id string) bool {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(2 * time.Second):
				return true
			}
		},
		now:   time.Now,
		sleep: sleepContext,
	}

	started := time.Now()
	_, err := p.awaitAsset(context.Background(), "5")
	require.ErrorIs(t, err, ErrOperationTimeout)
	assert.Less(t, time.Since(started), time.Second)
}

func TestRunCallerCancellationIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &operationPoller{
		operationID: "op-1",
		interval:    10 * time.Millisecond,
		timeout:     time.Minute,
		fetch: func(ctx context.Context) ([]byte, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		},
		validate: func(ctx context.Context, id string) bool { return false },
		now:      time.Now,
		sleep:    sleepContext,
	}

	_, err := p.run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrOperationTimeout)
}
