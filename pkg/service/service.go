// Package service implements the Service Manager: a descriptor-keyed
// registry of independently startable/stoppable components (capture
// engines, pipelines, the discovery announcer) with start-all/stop-all
// orchestration and an event callback for status changes.
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyRegistered = errors.New("service: name already registered")
	ErrNotRegistered     = errors.New("service: name not registered")
)

// Service is anything the Manager can start and stop. discovery.Service and
// api.Server satisfy this directly; capture engines (Start returns a Result)
// and media.Pipeline (Start returns a bool) need an adapter.
type Service interface {
	Start() error
	Stop()
}

// Status mirrors one service's lifecycle state.
type Status int

const (
	StatusStopped Status = iota
	StatusRunning
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	default:
		return "stopped"
	}
}

// Event is delivered to the Manager's event callback on every status
// transition.
type Event struct {
	Name   string
	Status Status
	Err    error
}

type entry struct {
	svc    Service
	status Status
	tasks  *taskQueue
}

// Manager is the process-wide named-service registry.
type Manager struct {
	mu       sync.Mutex
	services map[string]*entry
	onEvent  func(Event)
	log      *zap.Logger
}

func New(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		services: make(map[string]*entry),
		log:      log,
	}
}

// SetEventCallback installs the handler invoked on every status change.
// Only one callback is supported at a time, matching spec's single-slot
// event hook.
func (m *Manager) SetEventCallback(cb func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = cb
}

// Register adds a named service in the Stopped state. It does not start it.
func (m *Manager) Register(name string, svc Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	m.services[name] = &entry{svc: svc, status: StatusStopped, tasks: newTaskQueue()}
	return nil
}

// Unregister stops the service if running, tears down its deferred task
// queue, and removes it from the registry.
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	e, ok := m.services[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	delete(m.services, name)
	m.mu.Unlock()

	if e.status == StatusRunning {
		e.svc.Stop()
	}
	e.tasks.cancelAll()
	return nil
}

// StartService starts one registered service and emits an Event on
// success or failure.
func (m *Manager) StartService(name string) error {
	m.mu.Lock()
	e, ok := m.services[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	if err := e.svc.Start(); err != nil {
		m.setStatus(name, e, StatusFailed, err)
		return err
	}
	m.setStatus(name, e, StatusRunning, nil)
	return nil
}

// StopService stops one registered service and emits an Event. It calls the
// service's Stop even when the service is already stopped, relying on the
// idempotent Stop contract the underlying engines/pipelines honor.
func (m *Manager) StopService(name string) error {
	m.mu.Lock()
	e, ok := m.services[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	e.svc.Stop()
	m.setStatus(name, e, StatusStopped, nil)
	return nil
}

// StartAll starts every registered service. It does not stop on first
// failure — all services get a start attempt, and the first error
// encountered is returned after every attempt completes, so one bad
// service doesn't starve the others of a chance to start.
func (m *Manager) StartAll() error {
	m.mu.Lock()
	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}
	m.mu.Unlock()

	var firstErr error
	for _, name := range names {
		if err := m.StartService(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StopAll stops every registered service, in no particular order.
func (m *Manager) StopAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		_ = m.StopService(name)
	}
}

// EnqueueTask schedules fn to run after delay on the named service's
// deferred task queue. The queue is torn down (pending tasks cancelled)
// when the service is unregistered.
func (m *Manager) EnqueueTask(name string, delay time.Duration, fn func()) error {
	m.mu.Lock()
	e, ok := m.services[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	e.tasks.enqueue(delay, fn)
	return nil
}

// setStatus records the transition and, per notify_main_service, delivers
// the event on the service's own task queue rather than the caller's
// goroutine — a StartService/StopService call returns without waiting on
// whatever the callback does.
func (m *Manager) setStatus(name string, e *entry, status Status, err error) {
	m.mu.Lock()
	e.status = status
	cb := m.onEvent
	m.mu.Unlock()

	m.log.Info("service status change", zap.String("name", name), zap.String("status", status.String()), zap.Error(err))
	if cb != nil {
		ev := Event{Name: name, Status: status, Err: err}
		e.tasks.enqueue(0, func() { cb(ev) })
	}
}

// Status reports the current status of a registered service.
func (m *Manager) Status(name string) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.services[name]
	if !ok {
		return StatusStopped, false
	}
	return e.status, true
}

// GetAllServices returns every registered service name, in no particular
// order.
func (m *Manager) GetAllServices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}
	return names
}

// GetServiceCount returns the number of registered services.
func (m *Manager) GetServiceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.services)
}

// Info returns a one-line diagnostic summary, in the spirit of spec
// §4.2's pipeline_info(): registered count and running count.
func (m *Manager) Info() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	running := 0
	for _, e := range m.services {
		if e.status == StatusRunning {
			running++
		}
	}
	return fmt.Sprintf("services=%d running=%d", len(m.services), running)
}
