package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newBreaker(clock *fakeClock, transitions *[]string) *CircuitBreaker {
	return New("redis", Settings{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
		OnStateChange: func(name string, from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		},
		Now: clock.Now,
	})
}

func TestCircuitBreaker_StateMachine(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := newBreaker(clock, &transitions)

	t.Run("关闭状态正常放行", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, cb.Execute(func() error { return nil }))
		}
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, uint32(5), cb.Counts().TotalSuccesses)
	})

	t.Run("连续失败触发熔断", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
		}
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("熔断期间快速失败且不调用请求", func(t *testing.T) {
		called := false
		err := cb.Execute(func() error { called = true; return nil })
		assert.ErrorIs(t, err, ErrOpenState)
		assert.False(t, called)
	})

	t.Run("超时后半开并探测恢复", func(t *testing.T) {
		clock.Advance(31 * time.Second)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := newBreaker(clock, &transitions)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errBoom })
	}
	clock.Advance(31 * time.Second)

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IntervalResetsCounts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := newBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })

	// 统计窗口到期，之前的失败不再累计
	clock.Advance(11 * time.Second)
	_ = cb.Execute(func() error { return errBoom })

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestCircuitBreaker_IsSuccessful(t *testing.T) {
	errMiss := errors.New("cache miss")
	cb := New("cache", Settings{
		ReadyToTrip:  func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errMiss) },
	})

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errMiss }), errMiss)
	}
	assert.Equal(t, StateClosed, cb.State())
}
