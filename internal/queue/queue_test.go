package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"notification_feed/internal/logger"

	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (r *recordingAck) Ack(bool) error {
	r.acked = true
	return nil
}

func (r *recordingAck) Nack(_, requeue bool) error {
	r.nacked = true
	r.requeue = requeue
	return nil
}

func TestSettle(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		wantAck     bool
		wantRequeue bool
	}{
		{name: "success acks", err: nil, wantAck: true},
		{name: "transient error requeues", err: errors.New("db down"), wantRequeue: true},
		{name: "permanent error drops", err: Permanent(errors.New("bad json"))},
		{name: "wrapped permanent error drops", err: fmt.Errorf("handle: %w", Permanent(errors.New("bad json")))},
	}

	log := logger.Component("queue_test")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ack := &recordingAck{}
			var got []byte
			settle(context.Background(), log, ack, []byte("payload"), func(_ context.Context, body []byte) error {
				got = body
				return tc.err
			})

			require.Equal(t, []byte("payload"), got)
			require.Equal(t, tc.wantAck, ack.acked)
			require.Equal(t, !tc.wantAck, ack.nacked)
			require.Equal(t, tc.wantRequeue, ack.requeue)
		})
	}
}

func TestPermanent(t *testing.T) {
	require.Nil(t, Permanent(nil))

	base := errors.New("bad json")
	err := Permanent(base)
	require.True(t, IsPermanent(err))
	require.ErrorIs(t, err, base)
	require.False(t, IsPermanent(base))
}
