package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/taskboard/internal/retry"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}
}

func TestDo_SucceedsAfterTwoFailures(t *testing.T) {
	ctx := context.Background()
	calls := 0

	got, err := retry.Do(ctx, fastPolicy(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	calls := 0

	_, err := retry.Do(ctx, fastPolicy(), func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	require.Equal(t, errTransient, err)
	require.Equal(t, 3, calls)
}

func TestDo_FirstSuccessDoesNotSleep(t *testing.T) {
	ctx := context.Background()
	policy := retry.Policy{MaxAttempts: 3, Delay: time.Hour}

	start := time.Now()
	got, err := retry.Do(ctx, policy, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.Less(t, time.Since(start), time.Second)
}

func TestDo_NonRetryableErrorStopsImmediately(t *testing.T) {
	ctx := context.Background()
	notFound := errors.New("not found")
	policy := fastPolicy()
	policy.Retryable = func(err error) bool { return errors.Is(err, errTransient) }

	calls := 0
	_, err := retry.Do(ctx, policy, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, notFound
	})
	require.Equal(t, notFound, err)
	require.Equal(t, 1, calls)
}

func TestDo_OnRetryCalledBetweenAttempts(t *testing.T) {
	ctx := context.Background()
	policy := fastPolicy()
	var attempts []int
	policy.OnRetry = func(attempt int, err error) {
		require.ErrorIs(t, err, errTransient)
		attempts = append(attempts, attempt)
	}

	_, err := retry.Do(ctx, policy, func(context.Context) (int, error) {
		return 0, errTransient
	})
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, []int{1, 2}, attempts)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	ctx := context.Background()
	calls := 0
	_, err := retry.Do(ctx, retry.Policy{}, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 1, calls)
}
