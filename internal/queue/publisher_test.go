package queue

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/logger"
)

// silentBroker accepts TCP connections and never answers the AMQP handshake.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublishHonoursContextDeadline(t *testing.T) {
	p := NewPublisher(config.QueueConfig{URL: silentBroker(t), CatalogQueue: "catalog.changed"}, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := p.PublishCatalogChanged(ctx, CatalogChangedEvent{CatalogID: 1, Action: ActionRenamed})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPublishWithExpiredContext(t *testing.T) {
	p := NewPublisher(config.QueueConfig{URL: silentBroker(t), CatalogQueue: "catalog.changed"}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.PublishCatalogChanged(ctx, CatalogChangedEvent{CatalogID: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
