package base

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

func TestRetryPolicyExecute(t *testing.T) {
	tests := []struct {
		name      string
		policy    *RetryPolicy
		failures  int
		errType   errors.ErrorType
		wantCalls int
		wantErr   bool
	}{
		{name: "succeeds first time", policy: DefaultRetryPolicy(), wantCalls: 1},
		{name: "retries transient", policy: &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}, failures: 2, errType: errors.ErrorTypeConnection, wantCalls: 3},
		{name: "gives up", policy: &RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond}, failures: 5, errType: errors.ErrorTypeTimeout, wantCalls: 2, wantErr: true},
		{name: "does not retry permanent", policy: &RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond}, failures: 5, errType: errors.ErrorTypeQuery, wantCalls: 1, wantErr: true},
		{name: "no retry policy", policy: NoRetryPolicy(), failures: 1, errType: errors.ErrorTypeConnection, wantCalls: 1, wantErr: true},
		{name: "nil policy", policy: nil, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.policy.Execute(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errors.New(tt.errType, "attempt failed")
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, tt.errType))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryPolicyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour}
	err := policy.Execute(ctx, func(context.Context) error {
		return errors.New(errors.ErrorTypeConnection, "refused")
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
}

func TestRetryPolicyDelayCapped(t *testing.T) {
	policy := &RetryPolicy{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, policy.delay(0))
	assert.Equal(t, 2*time.Second, policy.delay(1))
	assert.Equal(t, 3*time.Second, policy.delay(5))
}
