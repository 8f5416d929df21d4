package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaisan-bot/model"
	"kaisan-bot/utils/database"
)

type fakeDispatcher struct {
	mu         sync.Mutex
	disbanded  []string
	reminded   []string
	disbandErr error
	onDisband  func(taskID string)
}

func (f *fakeDispatcher) Disband(_ context.Context, task model.ScheduledTask) error {
	f.mu.Lock()
	err := f.disbandErr
	hook := f.onDisband
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(task.ID)
	}
	f.mu.Lock()
	f.disbanded = append(f.disbanded, task.ID)
	f.mu.Unlock()
	return nil
}

func (f *fakeDispatcher) Remind(_ context.Context, task model.ScheduledTask, offsetMinutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminded = append(f.reminded, task.ID)
	return nil
}

func (f *fakeDispatcher) disbandedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.disbanded...)
}

func (f *fakeDispatcher) remindedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reminded...)
}

func testEngine(t *testing.T) (*Engine, *fakeDispatcher) {
	t.Helper()
	db, err := database.Init("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	d := &fakeDispatcher{}
	return New(db, d, time.Second, time.Second), d
}

func pendingTask(fireAt time.Time) model.ScheduledTask {
	return model.ScheduledTask{
		GuildID:        "g1",
		VoiceChannelID: "vc1",
		TextChannelID:  "tc1",
		AuthorID:       "author1",
		TargetKind:     "all",
		FireAt:         fireAt,
	}
}

func TestScheduleAndLoad(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	id, err := e.Schedule(pendingTask(time.Now().Add(time.Hour)), nil)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := e.Task(id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "g1", got.GuildID)
}

func TestSweepFiresDueTaskOnce(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	id, err := e.Schedule(pendingTask(time.Now().Add(-time.Minute)), nil)
	require.NoError(t, err)

	e.sweep()
	assert.Equal(t, []string{id}, d.disbandedIDs())

	// The task is gone, so another sweep does not fire it again.
	e.sweep()
	assert.Equal(t, []string{id}, d.disbandedIDs())

	_, err = e.Task(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepFiresInCreationOrder(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	fireAt := time.Now().Add(-time.Minute)
	base := time.Now().Add(-time.Hour)
	var want []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		e.now = func() time.Time { return at }
		id, err := e.Schedule(pendingTask(fireAt), nil)
		require.NoError(t, err)
		want = append(want, id)
	}
	e.now = time.Now

	e.sweep()
	assert.Equal(t, want, d.disbandedIDs())
}

func TestSweepRetriesFailedDispatch(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	id, err := e.Schedule(pendingTask(time.Now().Add(-time.Minute)), nil)
	require.NoError(t, err)

	d.disbandErr = errors.New("gateway hiccup")
	e.sweep()
	assert.Empty(t, d.disbandedIDs())

	// The task row survived the failure and fires on the next cycle.
	_, err = e.Task(id)
	require.NoError(t, err)

	d.mu.Lock()
	d.disbandErr = nil
	d.mu.Unlock()
	e.sweep()
	assert.Equal(t, []string{id}, d.disbandedIDs())
}

func TestSweepSendsRemindersBeforeFire(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	now := time.Now()
	id, err := e.Schedule(pendingTask(now.Add(10*time.Minute)), []model.TaskReminder{
		{OffsetMinutes: 15, RemindAt: now.Add(-5 * time.Minute)},
		{OffsetMinutes: 5, RemindAt: now.Add(5 * time.Minute)},
	})
	require.NoError(t, err)

	e.sweep()
	assert.Equal(t, []string{id}, d.remindedIDs())
	assert.Empty(t, d.disbandedIDs(), "the task itself is not due yet")

	// Sent reminders do not repeat.
	e.sweep()
	assert.Equal(t, []string{id}, d.remindedIDs())
}

func TestSweepSkipsRemindersOfDueTask(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	now := time.Now()
	id, err := e.Schedule(pendingTask(now.Add(-time.Minute)), []model.TaskReminder{
		{OffsetMinutes: 10, RemindAt: now.Add(-11 * time.Minute)},
	})
	require.NoError(t, err)

	// The disband itself supersedes the stale reminder.
	e.sweep()
	assert.Empty(t, d.remindedIDs())
	assert.Equal(t, []string{id}, d.disbandedIDs())
}

func TestCancel(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	id, err := e.Schedule(pendingTask(time.Now().Add(time.Hour)), nil)
	require.NoError(t, err)

	require.NoError(t, e.Cancel(id))
	assert.ErrorIs(t, e.Cancel(id), ErrNotFound)

	e.sweep()
	assert.Empty(t, d.disbandedIDs())
}

func TestSweepSkipsTaskCanceledMidSweep(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	fireAt := time.Now().Add(-time.Minute)
	base := time.Now().Add(-time.Hour)
	e.now = func() time.Time { return base }
	first, err := e.Schedule(pendingTask(fireAt), nil)
	require.NoError(t, err)
	e.now = func() time.Time { return base.Add(time.Minute) }
	second, err := e.Schedule(pendingTask(fireAt), nil)
	require.NoError(t, err)
	e.now = time.Now

	// Cancel the second task while the first one's dispatch is still in
	// flight; the cancel must win even though both were in the due scan.
	d.onDisband = func(taskID string) {
		if taskID == first {
			require.NoError(t, e.Cancel(second))
		}
	}

	e.sweep()
	assert.Equal(t, []string{first}, d.disbandedIDs())

	_, err = e.Task(second)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelUnknownTask(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	assert.ErrorIs(t, e.Cancel("no-such-task"), ErrNotFound)
	_, err := e.Task("no-such-task")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunStopsOnDone(t *testing.T) {
	t.Parallel()
	e, d := testEngine(t)

	id, err := e.Schedule(pendingTask(time.Now().Add(-time.Minute)), nil)
	require.NoError(t, err)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		e.Run(done)
		close(finished)
	}()

	// The initial sweep fires the overdue task without waiting a tick.
	require.Eventually(t, func() bool {
		ids := d.disbandedIDs()
		return len(ids) == 1 && ids[0] == id
	}, 2*time.Second, 10*time.Millisecond)

	close(done)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}
