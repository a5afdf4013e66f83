package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, delay time.Duration) error {
	r.delays = append(r.delays, delay)
	return nil
}

func TestPolicyDelayDoubles(t *testing.T) {
	policy := Policy{BaseDelay: time.Second}
	assert.Equal(t, time.Duration(0), policy.Delay(0))
	assert.Equal(t, time.Second, policy.Delay(1))
	assert.Equal(t, 2*time.Second, policy.Delay(2))
	assert.Equal(t, 4*time.Second, policy.Delay(3))

	capped := Policy{BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	assert.Equal(t, 3*time.Second, capped.Delay(3))
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	sleeps := &recordedSleeps{}
	calls := 0

	result, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       sleeps.sleep,
	}, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	permanent := errors.New("bad request")
	sleeps := &recordedSleeps{}
	calls := 0

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
		Sleep:       sleeps.sleep,
	}, func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.False(t, IsExhausted(err))
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps.delays)
}

func TestDoReportsExhaustion(t *testing.T) {
	sleeps := &recordedSleeps{}
	calls := 0

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       sleeps.sleep,
	}, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	require.Error(t, err)
	assert.True(t, IsExhausted(err))
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeps.delays, 2)
}

func TestDoHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 3}, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
