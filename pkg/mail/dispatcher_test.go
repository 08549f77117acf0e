package mail

import (
	"context"
	"errors"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedSender returns one error per Send call, in order; nil means success.
type scriptedSender struct {
	errs  []error
	calls int
}

func (s *scriptedSender) Send(*Message) error {
	err := s.errs[s.calls]
	s.calls++
	return err
}

func (s *scriptedSender) Verify() error   { return nil }
func (s *scriptedSender) Close() error    { return nil }
func (s *scriptedSender) GetHost() string { return "scripted" }
func (s *scriptedSender) GetPort() int    { return 587 }

func newTestDispatcher(sender Sender, policy RetryPolicy) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(sender, policy, zap.NewNop().Sugar())
	var waits []time.Duration
	d.wait = func(_ context.Context, dur time.Duration) error {
		waits = append(waits, dur)
		return nil
	}
	return d, &waits
}

func TestDispatch_SucceedsFirstAttempt(t *testing.T) {
	sender := &scriptedSender{errs: []error{nil}}
	d, waits := newTestDispatcher(sender, RetryPolicy{})

	res := d.Dispatch(context.Background(), &Message{To: "a@x.com", Subject: "hi", Body: "b"})

	assert.True(t, res.Sent())
	assert.Equal(t, StateSent, res.State)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
	assert.Empty(t, *waits, "no backoff should occur on immediate success")
}

func TestDispatch_TransientThenSuccess(t *testing.T) {
	transient := errors.New("dial tcp: i/o timeout")
	sender := &scriptedSender{errs: []error{transient, transient, nil}}
	d, waits := newTestDispatcher(sender, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second})

	res := d.Dispatch(context.Background(), &Message{To: "a@x.com"})

	assert.True(t, res.Sent())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits,
		"backoff should follow the exponential schedule")
}

func TestDispatch_RetriesExhausted(t *testing.T) {
	transient := errors.New("connection reset by peer")
	sender := &scriptedSender{errs: []error{transient, transient, transient}}
	d, waits := newTestDispatcher(sender, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second})

	res := d.Dispatch(context.Background(), &Message{To: "a@x.com"})

	assert.False(t, res.Sent())
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 3, res.Attempts)
	assert.ErrorIs(t, res.Err, transient)
	assert.Len(t, *waits, 2, "no wait after the final attempt")
}

func TestDispatch_PermanentFailureNotRetried(t *testing.T) {
	permanent := &textproto.Error{Code: 550, Msg: "mailbox unavailable"}
	sender := &scriptedSender{errs: []error{permanent}}
	d, waits := newTestDispatcher(sender, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second})

	res := d.Dispatch(context.Background(), &Message{To: "a@x.com"})

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 1, res.Attempts, "permanent failures must fail after exactly one attempt")
	assert.Empty(t, *waits)
	assert.Equal(t, 1, sender.calls)
}

func TestDispatch_BackoffCap(t *testing.T) {
	transient := errors.New("timeout")
	sender := &scriptedSender{errs: []error{transient, transient, transient, transient, transient}}
	d, waits := newTestDispatcher(sender, RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 10 * time.Second,
		MaxBackoff:     20 * time.Second,
	})

	res := d.Dispatch(context.Background(), &Message{To: "a@x.com"})

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, []time.Duration{
		10 * time.Second, 20 * time.Second, 20 * time.Second, 20 * time.Second,
	}, *waits, "backoff doubles until the cap")
}

func TestDispatch_ContextCancelledDuringBackoff(t *testing.T) {
	transient := errors.New("timeout")
	sender := &scriptedSender{errs: []error{transient, transient, transient}}
	d := NewDispatcher(sender, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Hour}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := d.Dispatch(ctx, &Message{To: "a@x.com"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		permanent   bool
		description string
	}{
		{
			name:        "SMTP 550 recipient refused",
			err:         &textproto.Error{Code: 550, Msg: "no such user"},
			permanent:   true,
			description: "5xx replies are permanent",
		},
		{
			name:        "SMTP 535 authentication rejected",
			err:         &textproto.Error{Code: 535, Msg: "authentication credentials invalid"},
			permanent:   true,
			description: "bad credentials must not be retried",
		},
		{
			name:        "SMTP 421 service unavailable",
			err:         &textproto.Error{Code: 421, Msg: "try again later"},
			permanent:   false,
			description: "4xx replies are transient",
		},
		{
			name:        "SMTP 450 mailbox busy",
			err:         &textproto.Error{Code: 450, Msg: "mailbox busy"},
			permanent:   false,
			description: "4xx replies are transient",
		},
		{
			name:        "Plain network error",
			err:         errors.New("dial tcp 127.0.0.1:587: connection refused"),
			permanent:   false,
			description: "non-SMTP errors default to transient",
		},
		{
			name:        "Wrapped SMTP error",
			err:         errors.Join(errors.New("send failed"), &textproto.Error{Code: 554, Msg: "transaction failed"}),
			permanent:   true,
			description: "classification must see through wrapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.permanent, IsPermanent(tt.err), tt.description)
		})
	}
}

func TestDefaultRetryPolicyApplied(t *testing.T) {
	d := NewDispatcher(&scriptedSender{errs: []error{nil}}, RetryPolicy{}, zap.NewNop().Sugar())
	assert.Equal(t, 3, d.policy.MaxAttempts)
	assert.Equal(t, time.Second, d.policy.InitialBackoff)
	assert.Equal(t, 32*time.Second, d.policy.MaxBackoff)
}
