package eventhandler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/infrastructure/messaging"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

func newCapturedHandler() (*AuditHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelDebug})
	return NewAuditHandler(log), &buf
}

func TestAuditHandler_LogsMarkEvent(t *testing.T) {
	h, buf := newCapturedHandler()

	err := h.Handle(shared.AttendanceMarkedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventAttendanceMarked, "Ana"),
		Name:         "Ana",
		Date:         "2026-03-02",
		ConsumedPack: true,
		Pack:         4,
		Debt:         0,
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "attendance.marked")
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "2026-03-02")
	assert.Contains(t, out, "consumed_pack")
}

func TestAuditHandler_SeesEveryBusEvent(t *testing.T) {
	h, buf := newCapturedHandler()

	cfg := messaging.DefaultConfig()
	cfg.AsyncMode = false
	bus := messaging.NewInMemoryEventBus(cfg)
	defer bus.Close()

	require.NoError(t, h.Subscribe(bus))

	require.NoError(t, bus.Publish(shared.StudentEnrolledEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventStudentEnrolled, "Bruno"),
		Name:        "Bruno",
		InitialPack: 8,
	}))
	require.NoError(t, bus.Publish(shared.StudentActiveChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStudentActiveChanged, "Bruno"),
		Name:      "Bruno",
		Active:    false,
	}))

	out := buf.String()
	assert.Contains(t, out, "student.enrolled")
	assert.Contains(t, out, "student.active_changed")
}
