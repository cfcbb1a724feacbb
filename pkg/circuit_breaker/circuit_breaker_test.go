package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func Test_circuitBreaker_Call(t *testing.T) {
	errBroker := errors.New("broker down")
	ok := func() error { return nil }
	fail := func() error { return errBroker }

	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cb := newCircuitBreaker(Config{
		RecordLength:     4,
		Timeout:          time.Second,
		Percentile:       0.5,
		RecoveryRequests: 2,
	}, clock.now)

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, Closed, cb.State())

	require.ErrorIs(t, cb.Call(fail), errBroker)
	require.Equal(t, Closed, cb.State())
	require.ErrorIs(t, cb.Call(fail), errBroker)
	require.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpenCB)
	require.False(t, called)

	// probe fails: back to open
	clock.t = clock.t.Add(2 * time.Second)
	require.ErrorIs(t, cb.Call(fail), errBroker)
	require.Equal(t, Open, cb.State())

	clock.t = clock.t.Add(2 * time.Second)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, HalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	require.Equal(t, Closed, cb.State())
}

func Test_circuitBreaker_Reset(t *testing.T) {
	cb := New(Config{RecordLength: 1, Timeout: time.Hour, Percentile: 1, RecoveryRequests: 1})
	_ = cb.Call(func() error { return errors.New("x") })
	require.Equal(t, Open, cb.State())

	cb.Reset()
	require.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
}
