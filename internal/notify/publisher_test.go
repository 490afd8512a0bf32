package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/retry"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	flushErr error
	closed   bool
	failures int // publishes that fail before succeeding
	calls    int
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.calls++
	f.subject, f.data = subject, data
	if f.failures > 0 {
		f.failures--
		return errors.New("transient")
	}
	return f.pubErr
}
func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }
func (f *fakeConn) Close()                                 { f.closed = true }

func TestPublisher_PublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	p := &Publisher{conn: fc, subject: "glaze.builds"}

	require.NoError(t, p.Publish(context.Background(), map[string]any{"buildId": "b1", "pages": 2}))
	require.Equal(t, "glaze.builds", fc.subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.data, &got))
	require.Equal(t, "b1", got["buildId"])

	p.Close()
	require.True(t, fc.closed)
}

func TestPublisher_ErrorsAreNotifyCategory(t *testing.T) {
	p := &Publisher{conn: &fakeConn{pubErr: errors.New("down")}, subject: "s"}
	err := p.Publish(context.Background(), "x")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))

	p = &Publisher{conn: &fakeConn{flushErr: context.DeadlineExceeded}, subject: "s"}
	err = p.Publish(context.Background(), "x")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublisher_UnmarshalableValue(t *testing.T) {
	p := &Publisher{conn: &fakeConn{}, subject: "s"}
	err := p.Publish(context.Background(), make(chan int))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "s", retry.Policy{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
}

func TestPublisher_RetriesTransientFailures(t *testing.T) {
	fc := &fakeConn{failures: 2}
	p := &Publisher{conn: fc, subject: "s", policy: retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 3)}

	require.NoError(t, p.Publish(context.Background(), "x"))
	require.Equal(t, 3, fc.calls)
}

func TestPublisher_GivesUpAfterMaxRetries(t *testing.T) {
	fc := &fakeConn{pubErr: errors.New("down")}
	p := &Publisher{conn: fc, subject: "s", policy: retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 1)}

	err := p.Publish(context.Background(), "x")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotify))
	require.Equal(t, 2, fc.calls)
}
