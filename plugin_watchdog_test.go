package fins

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionWatchdog(t *testing.T) {
	w := NewConnectionWatchdog(4)

	assert.NoError(t, w.OnConnected(nil))

	select {
	case evt := <-w.Events():
		assert.Equal(t, ConnectionEventConnected, evt.Type)
		assert.True(t, evt.Connected)
		assert.Zero(t, evt.Downtime)
	default:
		t.Fatal("expected connected event")
	}

	stats := w.Stats()
	assert.True(t, stats.Connected)
	assert.False(t, stats.LastConnected.IsZero())
	assert.Zero(t, stats.TotalDowntime)

	cause := errors.New("connection reset")
	assert.NoError(t, w.OnDisconnected(nil, cause))

	select {
	case evt := <-w.Events():
		assert.Equal(t, ConnectionEventDisconnected, evt.Type)
		assert.False(t, evt.Connected)
		assert.Equal(t, cause, evt.Err)
	default:
		t.Fatal("expected disconnected event")
	}

	stats = w.Stats()
	assert.False(t, stats.Connected)
	assert.Equal(t, int64(1), stats.Disconnects)
	assert.Equal(t, cause, stats.LastDisconnectErr)

	// Downtime accumulates across the reconnect.
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, w.OnConnected(nil))

	select {
	case evt := <-w.Events():
		assert.Equal(t, ConnectionEventConnected, evt.Type)
		assert.Greater(t, evt.Downtime, time.Duration(0))
	default:
		t.Fatal("expected reconnected event")
	}

	stats = w.Stats()
	assert.True(t, stats.Connected)
	assert.Equal(t, int64(1), stats.Reconnects)
	assert.Greater(t, stats.TotalDowntime, time.Duration(0))
	assert.Zero(t, stats.CurrentDowntime)
}

func TestConnectionWatchdogDropsWhenFull(t *testing.T) {
	w := NewConnectionWatchdog(1)

	assert.NoError(t, w.OnConnected(nil))
	// Buffer is full; this event is dropped instead of blocking.
	assert.NoError(t, w.OnDisconnected(nil, errors.New("x")))

	evt := <-w.Events()
	assert.Equal(t, ConnectionEventConnected, evt.Type)
	select {
	case <-w.Events():
		t.Fatal("dropped event should not be delivered")
	default:
	}

	// Stats still reflect the dropped disconnect.
	stats := w.Stats()
	assert.False(t, stats.Connected)
	assert.Equal(t, int64(1), stats.DroppedEvents)
}

func TestConnectionWatchdogDefaultBuffer(t *testing.T) {
	w := NewConnectionWatchdog(0)
	assert.Equal(t, 16, cap(w.Events()))
}
