package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageDecodesEvent(t *testing.T) {
	var got CatalogChangedEvent
	err := handleMessage(context.Background(),
		[]byte(`{"catalog_id":7,"company_name":"Esperoo","action":"item.toggled","version":3}`),
		func(_ context.Context, ev CatalogChangedEvent) error {
			got = ev
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.CatalogID)
	assert.Equal(t, "Esperoo", got.CompanyName)
	assert.Equal(t, ActionItemToggled, got.Action)
	assert.Equal(t, int64(3), got.Version)
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	called := false
	handle := func(context.Context, CatalogChangedEvent) error { called = true; return nil }

	assert.Error(t, handleMessage(context.Background(), []byte(`not json`), handle))
	assert.Error(t, handleMessage(context.Background(), []byte(`{"action":"item.pushed"}`), handle))
	assert.False(t, called)
}

func TestHandleMessagePropagatesHandlerError(t *testing.T) {
	boom := errors.New("redis down")
	err := handleMessage(context.Background(), []byte(`{"catalog_id":1}`),
		func(context.Context, CatalogChangedEvent) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
}
