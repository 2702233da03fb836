// Package service runs the access monitor: it owns the sensor, the access
// state machine and the telemetry store, and drives them from one tick loop.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/doorlog/internal/adapters/mq/queue"
	workerpool "github.com/okian/doorlog/internal/adapters/mq/worker"
	repository "github.com/okian/doorlog/internal/adapters/repository"
	"github.com/okian/doorlog/internal/domain/access"
	"github.com/okian/doorlog/internal/domain/clock"
	"github.com/okian/doorlog/internal/domain/model"
	"github.com/okian/doorlog/internal/domain/sensor"
	"github.com/okian/doorlog/pkg/logger"
	"github.com/okian/doorlog/pkg/metrics"
)

const (
	defaultTickInterval = 100 * time.Millisecond
	defaultBufferSize   = 1024
	loopShutdownTimeout = 5 * time.Second
)

// hostTime is the default authoritative time source.
var hostTime = clock.TimeSourceFunc(func(context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
})

// Service is the access monitor.
type Service struct {
	// mu guards the lifecycle (Start/Stop). The tick path never takes it.
	mu sync.Mutex

	// Core components
	name       string
	sensor     *sensor.Model
	clock      *clock.Clock
	machine    *access.Machine
	store      repository.Store
	events     atomic.Pointer[eventqueue.InMemoryQueue]
	loop       *workerpool.TickWorker
	timeSource clock.TimeSource

	// Configuration
	tickInterval time.Duration
	bufferSize   int
	syncClock    bool
	presets      map[string]*float64

	// dataMu guards the fields the tick loop shares with readers.
	dataMu    sync.RWMutex
	state     RunState
	indicator string
	target    sensor.Target
	reading   sensor.Reading

	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		name:         "MQTT Sub Sim",
		tickInterval: defaultTickInterval,
		bufferSize:   defaultBufferSize,
		syncClock:    true,
		timeSource:   hostTime,
		presets: map[string]*float64{
			IndicatorHigh:   sensor.Float(35.0),
			IndicatorLow:    sensor.Float(20.0),
			IndicatorNormal: nil,
		},
		state:     StateNotStarted,
		indicator: IndicatorNormal,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sensor == nil {
		s.sensor = sensor.New()
	}
	if s.clock == nil {
		s.clock = clock.New(nil)
	}
	if s.machine == nil {
		s.machine = access.NewMachine()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.reading = s.sensor.Reading()
	return s
}

// Start runs startup and init, then launches the tick loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	for _, step := range []Step{StepStartup, StepInit} {
		if err := s.advance(ctx, step); err != nil {
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "monitor started",
		logger.String("name", s.name),
		logger.Duration("tick", s.tickInterval),
		logger.Int("buffer", s.bufferSize),
	)
	return nil
}

// Stop runs deinit and shutdown. Buffered events are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	for _, step := range []Step{StepDeinit, StepShutdown} {
		if err := s.advance(ctx, step); err != nil {
			s.logger.Error(ctx, "lifecycle step failed", logger.String("step", step.String()), logger.Error(err))
		}
	}

	s.started = false
	state := s.State()
	s.logger.Info(ctx, "monitor stopped",
		logger.Int("exit_code", state.ExitCode()),
		logger.Bool("clean", state.CleanExit()),
	)
}

// Deliver hands a raw door message to the monitor. It never blocks; the
// message is dropped when the buffer is full or the monitor is not running.
func (s *Service) Deliver(channel, payload string) {
	q := s.events.Load()
	if q == nil {
		metrics.RecordEventDropped("not_running")
		return
	}
	msg := model.Message{Channel: channel, Payload: payload, ReceivedAt: time.Now()}
	if err := q.Enqueue(context.Background(), msg); err != nil && s.logger != nil {
		s.logger.Warn(context.Background(), "door message dropped",
			logger.String("channel", channel),
			logger.Error(err),
		)
	}
}

// tickRun carries values between the actions of one tick.
type tickRun struct {
	reading sensor.Reading
	effect  access.Effect
}

// Tick runs one loop iteration by performing the actions the tick
// transition returns: drain events, step the sensor, then persist whatever
// the access machine asks for. A store failure is returned after the tick
// completes; the next tick proceeds normally.
func (s *Service) Tick(ctx context.Context) (access.Effect, error) {
	actions, err := s.transition(StepTick)
	if err != nil {
		return access.Effect{}, err
	}

	run := tickRun{reading: s.Reading()}
	for _, a := range actions {
		if err := s.performTick(ctx, a, &run); err != nil {
			return run.effect, err
		}
	}
	return run.effect, nil
}

func (s *Service) performTick(ctx context.Context, a Action, run *tickRun) error {
	switch a {
	case ActionDrainEvents:
		if q := s.events.Load(); q != nil {
			for _, m := range q.Drain(ctx) {
				s.handle(ctx, m)
			}
		}
	case ActionStepSensor:
		run.reading = s.sensor.Step(s.Target())

		s.dataMu.Lock()
		s.reading = run.reading
		s.dataMu.Unlock()

		metrics.UpdateSensorReading("temperature", run.reading.Temperature)
		metrics.UpdateSensorReading("pressure", run.reading.Pressure)
		metrics.UpdateSensorReading("humidity", run.reading.Humidity)
		metrics.UpdateSensorReading("gas_resistance", run.reading.GasResistance)
	case ActionPersist:
		run.effect = s.machine.Tick(s.clock.Now(), run.reading)
		metrics.UpdatePeriodActive(s.machine.Period().Active)
		return s.persist(ctx, run.effect)
	default:
		return fmt.Errorf("%w: action %d during tick", ErrInvalidTransition, a)
	}
	return nil
}

func (s *Service) persist(ctx context.Context, eff access.Effect) error {
	switch eff.Kind {
	case access.EffectAppend:
		if err := s.store.Append(ctx, eff.Record); err != nil {
			metrics.RecordStoreError("append")
			return fmt.Errorf("append telemetry: %w", err)
		}
		metrics.RecordRecordAppended()
	case access.EffectBoundary:
		if err := s.store.AppendBoundary(ctx); err != nil {
			metrics.RecordStoreError("boundary")
			return fmt.Errorf("append boundary: %w", err)
		}
		metrics.RecordBoundaryMarker()
		s.log().Info(ctx, "access period closed")
	case access.EffectNone:
	}
	return nil
}

func (s *Service) handle(ctx context.Context, m model.Message) {
	before := s.machine.Period()
	if err := s.machine.HandleMessage(m.Channel, m.Payload); err != nil {
		reason := "malformed"
		if errors.Is(err, access.ErrUnknownChannel) {
			reason = "unknown_channel"
		}
		metrics.RecordEventRejected(m.Channel, reason)
		s.log().Warn(ctx, "door message rejected",
			logger.String("channel", m.Channel),
			logger.String("payload", m.Payload),
			logger.Error(err),
		)
		return
	}

	after := s.machine.Period()
	switch {
	case m.Channel == model.ChannelEnter:
		metrics.RecordPeriodStarted()
		s.log().Info(ctx, "access period started", logger.Time("start", after.StartTime))
	case m.Channel == model.ChannelExit && before.Active:
		metrics.RecordPeriodEnded()
		s.log().Info(ctx, "access period ended",
			logger.String("occupant", after.Occupant),
			logger.Time("end", after.EndTime),
		)
	case m.Channel == model.ChannelUser:
		s.log().Debug(ctx, "occupant identified", logger.String("occupant", after.Occupant))
	}
}

// State returns the lifecycle state.
func (s *Service) State() RunState {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.state
}

// Reading returns the latest sensor reading.
func (s *Service) Reading() sensor.Reading {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.reading
}

// Records returns a read-only copy of the persisted telemetry.
func (s *Service) Records(ctx context.Context) ([]model.TelemetryRecord, error) {
	return s.store.Records(ctx)
}

// Clock exposes the monitor clock.
func (s *Service) Clock() *clock.Clock {
	return s.clock
}

func (s *Service) transition(step Step) ([]Action, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	next, actions, err := Transition(s.state, step)
	if err != nil {
		if step == StepTick {
			return nil, fmt.Errorf("%w: %w", ErrNotRunning, err)
		}
		return nil, err
	}
	if next != s.state {
		metrics.UpdateRunState(int(next))
	}
	s.state = next
	return actions, nil
}

// advance moves the lifecycle and performs the resulting actions. Callers
// hold s.mu.
func (s *Service) advance(ctx context.Context, step Step) error {
	actions, err := s.transition(step)
	if err != nil {
		return err
	}
	for _, a := range actions {
		s.perform(ctx, a)
	}
	return nil
}

func (s *Service) perform(ctx context.Context, a Action) {
	switch a {
	case ActionAnnounce:
		s.logger.Info(ctx, "starting monitor", logger.String("name", s.name))
	case ActionSyncClock:
		if !s.syncClock {
			return
		}
		if s.clock.SyncFrom(ctx, s.timeSource) {
			s.logger.Info(ctx, "clock synchronised", logger.String("now", clock.Format(s.clock.Now())))
		} else {
			s.logger.Warn(ctx, "clock sync failed; using default reference")
		}
	case ActionOpenBuffer:
		s.events.Store(eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.bufferSize)))
	case ActionStartLoop:
		s.loop = workerpool.NewTickWorker(s.tickInterval, func(ctx context.Context) error {
			_, err := s.Tick(ctx)
			return err
		}, workerpool.WithName("tick"), workerpool.WithLogger(s.logger))
		go s.loop.Run(ctx)
	case ActionStopLoop:
		if s.loop == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, loopShutdownTimeout)
		defer cancel()
		if err := s.loop.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "tick loop shutdown failed", logger.Error(err))
		}
	case ActionCloseBuffer:
		if q := s.events.Swap(nil); q != nil {
			if n := q.Len(ctx); n > 0 {
				s.logger.Warn(ctx, "dropping buffered door messages", logger.Int("count", n))
			}
			_ = q.Close()
		}
	case ActionIndicatorsOff:
		metrics.UpdatePeriodActive(false)
	case ActionCloseStore:
		if err := s.store.Close(); err != nil {
			metrics.RecordStoreError("close")
			s.logger.Error(ctx, "closing telemetry store failed", logger.Error(err))
		}
	}
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}
