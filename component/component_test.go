package component

import (
	"context"
	"errors"
	"testing"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	started  int
	stopped  int
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started++
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped++
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return Health{Name: m.name, Status: StatusHealthy}
}

func TestRunStartsAndStops(t *testing.T) {
	c := &mockComponent{name: "client"}
	called := false
	err := Run(context.Background(), c, func(ctx context.Context) error {
		called = true
		if c.started != 1 || c.stopped != 0 {
			t.Errorf("expected started and not stopped inside fn, got %d/%d", c.started, c.stopped)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || c.stopped != 1 {
		t.Errorf("expected fn called and component stopped once, got called=%v stopped=%d", called, c.stopped)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	c := &mockComponent{name: "client", stopErr: errors.New("stop failed")}
	fnErr := errors.New("fn failed")
	err := Run(context.Background(), c, func(ctx context.Context) error { return fnErr })
	if !errors.Is(err, fnErr) {
		t.Fatalf("expected fn error to win, got %v", err)
	}
	if c.stopped != 1 {
		t.Errorf("expected stop on failure, got %d", c.stopped)
	}
}

func TestRunReturnsStopError(t *testing.T) {
	stopErr := errors.New("stop failed")
	c := &mockComponent{name: "client", stopErr: stopErr}
	if err := Run(context.Background(), c, func(ctx context.Context) error { return nil }); !errors.Is(err, stopErr) {
		t.Fatalf("expected stop error, got %v", err)
	}
}

func TestRunStartFailureSkipsFn(t *testing.T) {
	c := &mockComponent{name: "client", startErr: errors.New("boom")}
	err := Run(context.Background(), c, func(ctx context.Context) error {
		t.Error("fn must not run when Start fails")
		return nil
	})
	if err == nil || c.stopped != 0 {
		t.Errorf("expected start error and no stop, got err=%v stopped=%d", err, c.stopped)
	}
}

func TestHealthy(t *testing.T) {
	if !(Health{Status: StatusHealthy}).Healthy() {
		t.Error("expected healthy")
	}
	if (Health{Status: StatusDegraded}).Healthy() {
		t.Error("expected degraded to be unhealthy")
	}
}
