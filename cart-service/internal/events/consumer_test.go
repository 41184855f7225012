package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/fjod/go_cart/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs   chan kafkaGo.Message
	m      sync.Mutex
	closed bool
}

func newFakeReader(values ...[]byte) *fakeReader {
	r := &fakeReader{msgs: make(chan kafkaGo.Message, len(values))}
	for i, v := range values {
		r.msgs <- kafkaGo.Message{Offset: int64(i), Value: v}
	}
	return r
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkaGo.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafkaGo.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.m.Lock()
	defer r.m.Unlock()
	r.closed = true
	return nil
}

type recordingHandler struct {
	m      sync.Mutex
	events []CartEvent
	err    error
}

func (h *recordingHandler) handle(_ context.Context, e CartEvent) error {
	h.m.Lock()
	defer h.m.Unlock()
	h.events = append(h.events, e)
	return h.err
}

func (h *recordingHandler) count() int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.events)
}

func encodeEvent(t *testing.T, e CartEvent) []byte {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}

func TestConsumer_DeliversEvents(t *testing.T) {
	h := &recordingHandler{}
	reader := newFakeReader(
		encodeEvent(t, CartEvent{EventID: "a", Items: domain.Cart{{ID: 7, Amount: 2}}, TotalItems: 2}),
		encodeEvent(t, CartEvent{EventID: "b", TotalItems: 0}),
	)
	c := newConsumer(reader, h.handle, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return h.count() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "a", h.events[0].EventID)
	assert.Equal(t, int64(7), h.events[0].Items[0].ID)
	assert.Equal(t, "b", h.events[1].EventID)
}

func TestConsumer_SkipsMalformedAndHandlerErrors(t *testing.T) {
	h := &recordingHandler{err: errors.New("sink down")}
	reader := newFakeReader(
		[]byte("not json"),
		encodeEvent(t, CartEvent{EventID: "a"}),
		encodeEvent(t, CartEvent{EventID: "b"}),
	)
	c := newConsumer(reader, h.handle, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool { return h.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	c := newConsumer(newFakeReader(), (&recordingHandler{}).handle, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_Close(t *testing.T) {
	reader := newFakeReader()
	c := newConsumer(reader, (&recordingHandler{}).handle, logger.Discard())

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}
