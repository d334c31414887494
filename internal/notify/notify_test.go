package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject  string
	data     []byte
	pubErr   error
	flushErr error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.pubErr
}

func (f *fakeConn) FlushWithContext(context.Context) error { return f.flushErr }

func TestNATSPublisher_PublishesJSON(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, "", nil)

	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := Cycle{ID: "c1", Trigger: "watch", StartedAt: started, FinishedAt: started.Add(time.Second), Status: "success", Processed: []string{"article/foo"}}
	require.NoError(t, p.PublishCycle(context.Background(), in))

	assert.Equal(t, DefaultSubject, conn.subject)
	var out Cycle
	require.NoError(t, json.Unmarshal(conn.data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, []string{"article/foo"}, out.Processed)
	assert.True(t, out.StartedAt.Equal(started))
}

func TestNATSPublisher_Errors(t *testing.T) {
	boom := errors.New("boom")

	p := newNATSPublisher(&fakeConn{pubErr: boom}, "s", nil)
	assert.ErrorIs(t, p.PublishCycle(context.Background(), Cycle{}), boom)

	p = newNATSPublisher(&fakeConn{flushErr: boom}, "s", nil)
	assert.ErrorIs(t, p.PublishCycle(context.Background(), Cycle{}), boom)
	require.NoError(t, p.Close())
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	require.NoError(t, p.PublishCycle(context.Background(), Cycle{}))
}
