package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioroll/attendance-hub/internal/application"
	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
)

// fakeStudentRepo records persistence calls for assertions.
type fakeStudentRepo struct {
	mu      sync.Mutex
	stored  map[string]*student.Student // keyed by id
	updates map[string][]student.Fields
	deleted []string
	failAll error
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		stored:  make(map[string]*student.Student),
		updates: make(map[string][]student.Fields),
	}
}

func (f *fakeStudentRepo) List(context.Context) ([]*student.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make([]*student.Student, 0, len(f.stored))
	for _, s := range f.stored {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (f *fakeStudentRepo) Create(_ context.Context, s *student.Student) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return "", f.failAll
	}
	f.stored[s.ID] = s.Clone()
	return s.ID, nil
}

func (f *fakeStudentRepo) Update(_ context.Context, id string, fields student.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.updates[id] = append(f.updates[id], fields)
	if s, ok := f.stored[id]; ok {
		if fields.Pack != nil {
			s.Pack = *fields.Pack
		}
		if fields.Debt != nil {
			s.Debt = *fields.Debt
		}
		if fields.Active != nil {
			s.Active = *fields.Active
		}
	}
	return nil
}

func (f *fakeStudentRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.deleted = append(f.deleted, id)
	delete(f.stored, id)
	return nil
}

// fakeDayRepo records day document writes and deletes.
type fakeDayRepo struct {
	mu      sync.Mutex
	days    map[string][]string
	deleted []string
	failAll error
}

func newFakeDayRepo() *fakeDayRepo {
	return &fakeDayRepo{days: make(map[string][]string)}
}

func (f *fakeDayRepo) List(context.Context) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make(map[string][]string, len(f.days))
	for d, names := range f.days {
		out[d] = append([]string(nil), names...)
	}
	return out, nil
}

func (f *fakeDayRepo) Set(_ context.Context, date string, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.days[date] = append([]string(nil), names...)
	return nil
}

func (f *fakeDayRepo) Delete(_ context.Context, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.deleted = append(f.deleted, date)
	delete(f.days, date)
	return nil
}

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *recordingBus) Publish(e shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) types() []shared.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.EventType, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventType()
	}
	return out
}

type testEnv struct {
	deps     Deps
	students *fakeStudentRepo
	days     *fakeDayRepo
	bus      *recordingBus
	state    *application.State
}

func newTestEnv(t *testing.T, seed ...*student.Student) *testEnv {
	t.Helper()
	students := newFakeStudentRepo()
	days := newFakeDayRepo()
	bus := &recordingBus{}

	roster := student.NewRoster()
	for _, s := range seed {
		require.NoError(t, roster.Add(s))
		students.stored[s.ID] = s.Clone()
	}
	state := application.NewState(roster, attendance.NewIndex())

	return &testEnv{
		deps: Deps{
			State:    state,
			Students: students,
			Days:     days,
			Bus:      bus,
		},
		students: students,
		days:     days,
		bus:      bus,
		state:    state,
	}
}

func seedStudent(t *testing.T, name string, pack, debt int, active bool) *student.Student {
	t.Helper()
	s, err := student.NewStudent(name, pack)
	require.NoError(t, err)
	s.Debt = student.Debt(debt)
	s.Active = active
	return s
}

func (e *testEnv) balances(t *testing.T, name string) (student.Pack, student.Debt) {
	t.Helper()
	var p student.Pack
	var d student.Debt
	e.state.View(func(roster *student.Roster, _ *attendance.Index) {
		s, err := roster.Get(name)
		require.NoError(t, err)
		p, d = s.Pack, s.Debt
	})
	return p, d
}

func TestMarkAttendance_ConsumesPack(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 2, 0, true))
	h := NewMarkAttendanceHandler(env.deps)

	res, err := h.Handle(context.Background(), MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, student.EffectConsumedPack, res.Effect)
	assert.Equal(t, student.Pack(1), res.Student.Pack)
	assert.Equal(t, student.Debt(0), res.Student.Debt)
	assert.Equal(t, []string{"Ana"}, res.DayNames)

	// Both persistence deltas were issued.
	assert.Equal(t, []string{"Ana"}, env.days.days["2026-03-02"])
	assert.Len(t, env.students.updates[res.Student.ID], 1)
	assert.Equal(t, []shared.EventType{shared.EventAttendanceMarked}, env.bus.types())
}

func TestMarkAttendance_NeutralIncursDebt(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 0, 0, true))
	h := NewMarkAttendanceHandler(env.deps)

	res, err := h.Handle(context.Background(), MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, student.EffectIncurredDebt, res.Effect)
	assert.Equal(t, student.Pack(0), res.Student.Pack)
	assert.Equal(t, student.Debt(1), res.Student.Debt)
}

func TestMarkAttendance_Guards(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 1, 0, false))
	h := NewMarkAttendanceHandler(env.deps)
	ctx := context.Background()

	_, err := h.Handle(ctx, MarkAttendanceCommand{Date: "2026-03-02", Name: "Nadie"})
	assert.ErrorIs(t, err, student.ErrNotFound)

	_, err = h.Handle(ctx, MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	assert.ErrorIs(t, err, student.ErrInactive)

	_, err = h.Handle(ctx, MarkAttendanceCommand{Date: "not-a-date", Name: "Ana"})
	assert.ErrorIs(t, err, attendance.ErrInvalidDate)

	// Guard failures never reach the store.
	assert.Empty(t, env.days.days)
	assert.Empty(t, env.bus.types())
}

func TestMarkAttendance_AlreadyMarked(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 3, 0, true))
	h := NewMarkAttendanceHandler(env.deps)
	ctx := context.Background()

	_, err := h.Handle(ctx, MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)

	_, err = h.Handle(ctx, MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)

	// Second mark left pack, debt and the day set untouched.
	p, d := env.balances(t, "Ana")
	assert.Equal(t, student.Pack(2), p)
	assert.Equal(t, student.Debt(0), d)
	assert.Equal(t, []string{"Ana"}, env.days.days["2026-03-02"])
}

func TestMarkAttendance_PersistFailureKeepsLocalCommit(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 1, 0, true))
	env.days.failAll = errors.New("store down")
	h := NewMarkAttendanceHandler(env.deps)

	res, err := h.Handle(context.Background(), MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.Error(t, err)
	require.NotNil(t, res, "local commit survives persistence failure")

	p, _ := env.balances(t, "Ana")
	assert.Equal(t, student.Pack(0), p, "no rollback on store failure")
}

func TestUnmarkAttendance_InverseOfMark(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 0, 0, true))
	mark := NewMarkAttendanceHandler(env.deps)
	unmark := NewUnmarkAttendanceHandler(env.deps)
	ctx := context.Background()

	_, err := mark.Handle(ctx, MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)

	res, err := unmark.Handle(ctx, UnmarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, student.EffectClearedDebt, res.Effect)
	assert.True(t, res.DayDeleted)

	// Round trip: balances return to their pre-sequence values.
	p, d := env.balances(t, "Ana")
	assert.Equal(t, student.Pack(0), p)
	assert.Equal(t, student.Debt(0), d)

	// The emptied day document was deleted, not rewritten.
	assert.Contains(t, env.days.deleted, "2026-03-02")
	assert.NotContains(t, env.days.days, "2026-03-02")
}

func TestUnmarkAttendance_NotMarked(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 2, 0, true))
	h := NewUnmarkAttendanceHandler(env.deps)

	_, err := h.Handle(context.Background(), UnmarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	assert.ErrorIs(t, err, attendance.ErrNotMarked)

	p, d := env.balances(t, "Ana")
	assert.Equal(t, student.Pack(2), p)
	assert.Equal(t, student.Debt(0), d)
}

func TestUnmarkAttendance_KeepsDayWithRemainingAttendees(t *testing.T) {
	env := newTestEnv(t,
		seedStudent(t, "Ana", 2, 0, true),
		seedStudent(t, "Bruno", 2, 0, true),
	)
	mark := NewMarkAttendanceHandler(env.deps)
	unmark := NewUnmarkAttendanceHandler(env.deps)
	ctx := context.Background()

	for _, name := range []string{"Ana", "Bruno"} {
		_, err := mark.Handle(ctx, MarkAttendanceCommand{Date: "2026-03-02", Name: name})
		require.NoError(t, err)
	}

	res, err := unmark.Handle(ctx, UnmarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)
	assert.False(t, res.DayDeleted)
	assert.Equal(t, []string{"Bruno"}, res.DayNames)
	assert.Equal(t, []string{"Bruno"}, env.days.days["2026-03-02"])
}

func TestEnrollStudent(t *testing.T) {
	env := newTestEnv(t)
	h := NewEnrollStudentHandler(env.deps)

	res, err := h.Handle(context.Background(), EnrollStudentCommand{Name: "Ana", InitialPack: -2})
	require.NoError(t, err)
	assert.Equal(t, student.Pack(0), res.Student.Pack, "negative pack clamps to zero")
	assert.True(t, res.Student.Active)
	assert.Contains(t, env.students.stored, res.Student.ID)

	_, err = h.Handle(context.Background(), EnrollStudentCommand{Name: "Ana", InitialPack: 4})
	assert.ErrorIs(t, err, student.ErrDuplicateName)
}

func TestSetStudentActive(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 1, 2, true))
	h := NewSetStudentActiveHandler(env.deps)
	ctx := context.Background()

	res, err := h.Handle(ctx, SetStudentActiveCommand{Name: "Ana", Active: false})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Student.Active)
	assert.Equal(t, student.Pack(1), res.Student.Pack, "toggle never moves balances")
	assert.Equal(t, student.Debt(2), res.Student.Debt)

	// Idempotent repeat: no change, no persistence, no event.
	events := len(env.bus.types())
	res, err = h.Handle(ctx, SetStudentActiveCommand{Name: "Ana", Active: false})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Len(t, env.bus.types(), events)
	assert.Len(t, env.students.updates[res.Student.ID], 1)
}

func TestRemoveStudent_RequiresConfirmation(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 1, 0, true))
	h := NewRemoveStudentHandler(env.deps)

	_, err := h.Handle(context.Background(), RemoveStudentCommand{Name: "Ana"})
	assert.ErrorIs(t, err, shared.ErrNotConfirmed)
	_, d := env.balances(t, "Ana")
	assert.Equal(t, student.Debt(0), d)
}

func TestRemoveStudent_PurgesAttendance(t *testing.T) {
	env := newTestEnv(t,
		seedStudent(t, "Ana", 9, 0, true),
		seedStudent(t, "Bruno", 9, 0, true),
	)
	mark := NewMarkAttendanceHandler(env.deps)
	ctx := context.Background()
	for _, m := range []MarkAttendanceCommand{
		{Date: "2026-03-02", Name: "Ana"},
		{Date: "2026-03-02", Name: "Bruno"},
		{Date: "2026-03-04", Name: "Ana"},
	} {
		_, err := mark.Handle(ctx, m)
		require.NoError(t, err)
	}

	h := NewRemoveStudentHandler(env.deps)
	res, err := h.Handle(ctx, RemoveStudentCommand{Name: "Ana", Confirmed: true})
	require.NoError(t, err)
	require.Len(t, res.Purged, 2)

	// The shared day was rewritten, the solo day deleted with the student.
	assert.Equal(t, []string{"Bruno"}, env.days.days["2026-03-02"])
	assert.Contains(t, env.days.deleted, "2026-03-04")
	assert.Contains(t, env.students.deleted, res.Student.ID)

	env.state.View(func(roster *student.Roster, index *attendance.Index) {
		assert.False(t, roster.Has("Ana"))
		assert.Equal(t, 0, index.TotalFor("Ana"))
	})

	_, err = h.Handle(ctx, RemoveStudentCommand{Name: "Ana", Confirmed: true})
	assert.ErrorIs(t, err, student.ErrNotFound)
}

func TestAdjustBalance_Recharge(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 0, 2, true))
	h := NewAdjustBalanceHandler(env.deps)

	res, err := h.Handle(context.Background(), AdjustBalanceCommand{Name: "Ana", Kind: AdjustRecharge, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, student.Pack(5), res.Student.Pack)
	assert.Equal(t, student.Debt(2), res.Student.Debt, "recharge never touches debt")
}

func TestAdjustBalance_PayDebt(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 0, 2, true))
	h := NewAdjustBalanceHandler(env.deps)
	ctx := context.Background()

	_, err := h.Handle(ctx, AdjustBalanceCommand{Name: "Ana", Kind: AdjustPayDebt, Amount: 3})
	assert.ErrorIs(t, err, student.ErrOverpayment)
	_, d := env.balances(t, "Ana")
	assert.Equal(t, student.Debt(2), d, "state unchanged on overpayment")

	res, err := h.Handle(ctx, AdjustBalanceCommand{Name: "Ana", Kind: AdjustPayDebt, Amount: 2})
	require.NoError(t, err)
	assert.Equal(t, student.Debt(0), res.Student.Debt)
}

func TestAdjustBalance_Validation(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 0, 0, true))
	h := NewAdjustBalanceHandler(env.deps)
	ctx := context.Background()

	_, err := h.Handle(ctx, AdjustBalanceCommand{Name: "Ana", Kind: AdjustRecharge, Amount: 0})
	assert.ErrorIs(t, err, student.ErrInvalidAmount)

	_, err = h.Handle(ctx, AdjustBalanceCommand{Name: "Ana", Kind: "transfer", Amount: 1})
	assert.Error(t, err)
}

func TestReconcile_Clean(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 2, 0, true))
	mark := NewMarkAttendanceHandler(env.deps)
	_, err := mark.Handle(context.Background(), MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.NoError(t, err)

	h := NewReconcileHandler(env.deps)
	res, err := h.Handle(context.Background(), ReconcileCommand{})
	require.NoError(t, err)
	assert.True(t, res.Clean())
	assert.Equal(t, 1, res.StudentsChecked)
	assert.Equal(t, 1, res.DaysChecked)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	env := newTestEnv(t, seedStudent(t, "Ana", 2, 0, true))
	mark := NewMarkAttendanceHandler(env.deps)

	// Day writes fail, so the store misses the day and holds a stale
	// balance. The snapshot is ahead by design.
	env.days.failAll = errors.New("store down")
	env.students.failAll = errors.New("store down")
	_, err := mark.Handle(context.Background(), MarkAttendanceCommand{Date: "2026-03-02", Name: "Ana"})
	require.Error(t, err)
	env.days.failAll = nil
	env.students.failAll = nil

	h := NewReconcileHandler(env.deps)
	res, err := h.Handle(context.Background(), ReconcileCommand{})
	require.NoError(t, err)
	require.False(t, res.Clean())

	kinds := make(map[DriftKind]bool)
	for _, d := range res.Drifts {
		kinds[d.Kind] = true
	}
	assert.True(t, kinds[DriftBalanceMismatch])
	assert.True(t, kinds[DriftDayMissing])
}
