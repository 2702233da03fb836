package service

import "fmt"

// RunState is the monitor lifecycle position. Values are the process exit
// codes reported on termination.
type RunState int

// Run states in lifecycle order.
const (
	StateNotStarted RunState = iota + 1
	StateStarting
	StateInitialising
	StateLooping
	StateDeinitialising
	StateShuttingDown
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarting:
		return "starting"
	case StateInitialising:
		return "initialising"
	case StateLooping:
		return "looping"
	case StateDeinitialising:
		return "deinitialising"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("run_state(%d)", int(s))
	}
}

// ExitCode is the state as an integer. A clean run ends at StateShuttingDown.
func (s RunState) ExitCode() int { return int(s) }

// CleanExit reports whether the run reached the final state.
func (s RunState) CleanExit() bool { return s == StateShuttingDown }

// Step is a lifecycle stimulus.
type Step int

// Lifecycle steps.
const (
	StepStartup Step = iota + 1
	StepInit
	StepTick
	StepDeinit
	StepShutdown
)

func (s Step) String() string {
	switch s {
	case StepStartup:
		return "startup"
	case StepInit:
		return "init"
	case StepTick:
		return "tick"
	case StepDeinit:
		return "deinit"
	case StepShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Action is a side effect the caller performs after a transition.
type Action int

// Lifecycle actions.
const (
	ActionAnnounce Action = iota + 1
	ActionSyncClock
	ActionOpenBuffer
	ActionStartLoop
	ActionDrainEvents
	ActionStepSensor
	ActionPersist
	ActionStopLoop
	ActionCloseBuffer
	ActionIndicatorsOff
	ActionCloseStore
)

// Transition returns the state reached by applying step in state s and the
// actions to perform, in order. It has no side effects.
func Transition(s RunState, step Step) (RunState, []Action, error) {
	switch {
	case s == StateNotStarted && step == StepStartup:
		return StateStarting, []Action{ActionAnnounce}, nil
	case s == StateStarting && step == StepInit:
		return StateInitialising, []Action{ActionSyncClock, ActionOpenBuffer, ActionStartLoop}, nil
	case (s == StateInitialising || s == StateLooping) && step == StepTick:
		return StateLooping, []Action{ActionDrainEvents, ActionStepSensor, ActionPersist}, nil
	case (s == StateStarting || s == StateInitialising || s == StateLooping) && step == StepDeinit:
		return StateDeinitialising, []Action{ActionStopLoop, ActionCloseBuffer, ActionIndicatorsOff}, nil
	case s == StateDeinitialising && step == StepShutdown:
		return StateShuttingDown, []Action{ActionCloseStore}, nil
	default:
		return s, nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, step, s)
	}
}
