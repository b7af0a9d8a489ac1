package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioroll/attendance-hub/internal/domain/shared"
)

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: false})
	defer bus.Close()

	var got []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventAttendanceMarked, func(e shared.Event) error {
		got = append(got, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		got = append(got, "all:"+e.EventType())
		return nil
	}))

	marked := shared.AttendanceMarkedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventAttendanceMarked, "id-1"),
	}
	enrolled := shared.StudentEnrolledEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStudentEnrolled, "id-2"),
	}
	require.NoError(t, bus.Publish(marked))
	require.NoError(t, bus.Publish(enrolled))

	assert.Equal(t, []shared.EventType{
		shared.EventAttendanceMarked,
		"all:" + shared.EventAttendanceMarked,
		"all:" + shared.EventStudentEnrolled,
	}, got)
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: false})
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		return errors.New("projection broke")
	}))
	assert.NoError(t, bus.Publish(shared.StudentEnrolledEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStudentEnrolled, "id-1"),
	}))
}

func TestInMemoryEventBus_AsyncDeliveryAndClose(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: true, WorkerPoolSize: 2})

	var mu sync.Mutex
	delivered := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.StudentEnrolledEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventStudentEnrolled, "id"),
		}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == 10
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.StudentEnrolledEvent{}), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventStudentEnrolled, func(shared.Event) error { return nil }), ErrEventBusClosed)
}
