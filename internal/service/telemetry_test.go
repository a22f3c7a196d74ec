package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"robot-telemetry/internal/model"
	"robot-telemetry/internal/simulator"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu       sync.Mutex
	saved    []model.TelemetrySample
	commands []string
	saveErr  error
}

func (f *fakeStore) SaveTelemetry(ctx context.Context, s model.TelemetrySample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) LogCommand(ctx context.Context, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	return nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	samples []model.TelemetrySample
	alerts  []model.AlertEvent
	results []model.CommandResult
}

func (f *fakeBroadcaster) PublishTelemetry(s model.TelemetrySample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, s)
}

func (f *fakeBroadcaster) PublishAlert(e model.AlertEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, e)
}

func (f *fakeBroadcaster) PublishCommandResult(r model.CommandResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

func (f *fakeBroadcaster) sampleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func newTestService(store Store, hub Broadcaster, interval time.Duration) *TelemetryService {
	sim := simulator.New(rand.New(rand.NewSource(1)), zap.NewNop().Sugar())
	return NewTelemetryService(sim, hub, store, nil, interval, "robot_001", zap.NewNop().Sugar())
}

func TestTickPersistsAndBroadcasts(t *testing.T) {
	store := &fakeStore{}
	hub := &fakeBroadcaster{}
	svc := newTestService(store, hub, time.Hour)

	svc.tick(context.Background())

	require.Equal(t, 1, store.savedCount())
	require.Equal(t, 1, hub.sampleCount())
	require.Equal(t, store.saved[0], hub.samples[0])
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &fakeStore{}
	hub := &fakeBroadcaster{}
	svc := newTestService(store, hub, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()

	// let a bounded number of ticks happen, then stop the loop
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}

	require.Greater(t, store.savedCount(), 0)
	require.Equal(t, store.savedCount(), hub.sampleCount())
}

func TestSaveFailureDoesNotStopLoop(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("connection refused")}
	hub := &fakeBroadcaster{}
	svc := newTestService(store, hub, time.Hour)

	svc.tick(context.Background())
	svc.tick(context.Background())

	// nothing persisted, but broadcasting carried on
	require.Zero(t, store.savedCount())
	require.Equal(t, 2, hub.sampleCount())
}

func TestBroadcastOrderMatchesGenerationOrder(t *testing.T) {
	store := &fakeStore{}
	hub := &fakeBroadcaster{}
	svc := newTestService(store, hub, time.Hour)

	for i := 0; i < 20; i++ {
		svc.tick(context.Background())
	}

	require.Equal(t, store.saved, hub.samples)
	for i := 1; i < len(hub.samples); i++ {
		require.False(t, hub.samples[i].Timestamp.Before(hub.samples[i-1].Timestamp))
	}
}

func TestSubmitCommand(t *testing.T) {
	t.Run("valid command executes, logs, and broadcasts", func(t *testing.T) {
		store := &fakeStore{}
		hub := &fakeBroadcaster{}
		svc := newTestService(store, hub, time.Hour)

		res := svc.SubmitCommand(context.Background(), "start")
		require.True(t, res.Success)
		require.Equal(t, "Robot started", res.Message)
		require.Equal(t, "start", res.Command)

		require.Equal(t, []string{"start"}, store.commands)
		require.Equal(t, []model.CommandResult{res}, hub.results)

		state := svc.Status()
		require.True(t, state.Running)
		require.Equal(t, model.ModeWorking, state.Mode)
	})

	t.Run("unknown command is rejected with no state change", func(t *testing.T) {
		store := &fakeStore{}
		hub := &fakeBroadcaster{}
		svc := newTestService(store, hub, time.Hour)
		before := svc.Status()

		res := svc.SubmitCommand(context.Background(), "launch")
		require.False(t, res.Success)
		require.Contains(t, res.Message, "invalid command")
		require.Contains(t, res.Message, "start, stop, reset")

		require.Equal(t, before, svc.Status())
		require.Empty(t, store.commands)
		require.Empty(t, hub.results)
	})
}

func TestAlertsBroadcastWhenConditionsHold(t *testing.T) {
	store := &fakeStore{}
	hub := &fakeBroadcaster{}
	svc := newTestService(store, hub, time.Hour)
	svc.SubmitCommand(context.Background(), "start")

	// working-mode temperature can exceed 55; drive enough ticks that
	// at least one alerting sample shows up
	for i := 0; i < 500; i++ {
		svc.tick(context.Background())
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.NotEmpty(t, hub.alerts)
	for _, a := range hub.alerts {
		require.Contains(t, []string{model.AlertWarning, model.AlertCritical}, a.Type)
	}
}
