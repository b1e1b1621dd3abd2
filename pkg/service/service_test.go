package service

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	startErr  error
	started   atomic.Int32
	stopped   atomic.Int32
}

func (f *fakeService) Start() error {
	f.started.Add(1)
	return f.startErr
}

func (f *fakeService) Stop() {
	f.stopped.Add(1)
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Register("capture", &fakeService{}))
	err := m.Register("capture", &fakeService{})
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestStartAllAttemptsEveryServiceDespiteFailure(t *testing.T) {
	m := New(nil)
	failing := &fakeService{startErr: errors.New("boom")}
	ok := &fakeService{}

	require.NoError(t, m.Register("a", failing))
	require.NoError(t, m.Register("b", ok))

	err := m.StartAll()
	require.Error(t, err)
	assert.Equal(t, int32(1), failing.started.Load())
	assert.Equal(t, int32(1), ok.started.Load())

	status, found := m.Status("a")
	require.True(t, found)
	assert.Equal(t, StatusFailed, status)

	status, found = m.Status("b")
	require.True(t, found)
	assert.Equal(t, StatusRunning, status)
}

func TestStopAllStopsEveryRunningService(t *testing.T) {
	m := New(nil)
	a, b := &fakeService{}, &fakeService{}
	require.NoError(t, m.Register("a", a))
	require.NoError(t, m.Register("b", b))
	require.NoError(t, m.StartAll())

	m.StopAll()
	assert.Equal(t, int32(1), a.stopped.Load())
	assert.Equal(t, int32(1), b.stopped.Load())
}

func TestEventCallbackFiresOnTransitions(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Register("a", &fakeService{}))

	events := make(chan Event, 2)
	m.SetEventCallback(func(e Event) { events <- e })

	require.NoError(t, m.StartService("a"))
	require.NoError(t, m.StopService("a"))

	var got []Event
	for i := 0; i < 2; i++ {
		select {
		case e := <-events:
			got = append(got, e)
		case <-time.After(time.Second):
			t.Fatal("event did not arrive")
		}
	}

	require.Len(t, got, 2)
	assert.Equal(t, StatusRunning, got[0].Status)
	assert.Equal(t, StatusStopped, got[1].Status)
}

func TestGetAllServicesAndCount(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Register("a", &fakeService{}))
	require.NoError(t, m.Register("b", &fakeService{}))

	assert.Equal(t, 2, m.GetServiceCount())
	assert.ElementsMatch(t, []string{"a", "b"}, m.GetAllServices())
}

func TestUnregisterCancelsPendingTasks(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Register("a", &fakeService{}))

	var fired atomic.Bool
	require.NoError(t, m.EnqueueTask("a", 10*time.Millisecond, func() { fired.Store(true) }))
	require.NoError(t, m.Unregister("a"))

	time.Sleep(30 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestEnqueueTaskRunsAfterDelay(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Register("a", &fakeService{}))

	done := make(chan struct{})
	require.NoError(t, m.EnqueueTask("a", time.Millisecond, func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
}

func TestUnknownServiceOperationsReturnErrNotRegistered(t *testing.T) {
	m := New(nil)
	require.ErrorIs(t, m.StartService("missing"), ErrNotRegistered)
	require.ErrorIs(t, m.StopService("missing"), ErrNotRegistered)
	require.ErrorIs(t, m.Unregister("missing"), ErrNotRegistered)
}
