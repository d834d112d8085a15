package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDeliveryDecodes(t *testing.T) {
	var got AssignmentsRestoreMessage
	h := func(_ context.Context, m AssignmentsRestoreMessage) error {
		got = m
		return nil
	}
	body := []byte(`{"chart_id":"c1","source":"backup","assignments":[{"guest_id":"g1","table_id":"t1","seat_index":2}]}`)

	require.NoError(t, HandleDelivery(context.Background(), body, h))
	assert.Equal(t, "c1", got.ChartID)
	require.Len(t, got.Assignments, 1)
	assert.Equal(t, 2, got.Assignments[0].SeatIndex)
}

func TestHandleDeliveryRejects(t *testing.T) {
	called := false
	h := func(context.Context, AssignmentsRestoreMessage) error {
		called = true
		return nil
	}
	ctx := context.Background()

	assert.Error(t, HandleDelivery(ctx, []byte(`not json`), h))
	assert.Error(t, HandleDelivery(ctx, []byte(`{"assignments":[]}`), h))
	assert.Error(t, HandleDelivery(ctx, []byte(`{"chart_id":"c","assignments":[{"table_id":"t"}]}`), h))
	assert.False(t, called)

	boom := errors.New("boom")
	err := HandleDelivery(ctx, []byte(`{"chart_id":"c"}`), func(context.Context, AssignmentsRestoreMessage) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
}
