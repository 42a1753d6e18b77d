package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeConnState struct {
	connected atomic.Bool
	closed    atomic.Bool
}

func (f *fakeConnState) IsConnected() bool { return f.connected.Load() }
func (f *fakeConnState) IsClosed() bool    { return f.closed.Load() }

func TestHealthChecker_Disabled(t *testing.T) {
	hc := NewHealthChecker(nil, 0)
	hc.Start(context.Background())

	assert.Equal(t, StatusDisabled, hc.Status())
	var nilChecker *HealthChecker
	assert.Equal(t, StatusDisabled, nilChecker.Status())
}

func TestHealthChecker_TracksConnection(t *testing.T) {
	conn := &fakeConnState{}
	conn.connected.Store(true)

	hc := NewHealthChecker(conn, 5*time.Millisecond)
	assert.Equal(t, StatusUp, hc.Status())

	done := make(chan struct{})
	go func() {
		hc.Start(context.Background())
		close(done)
	}()

	conn.connected.Store(false)
	assert.Eventually(t, func() bool { return hc.Status() == StatusDown }, time.Second, 5*time.Millisecond)

	hc.Stop()
	hc.Stop()
	<-done
}
