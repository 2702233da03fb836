package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/okian/doorlog/internal/domain/clock"
	"github.com/okian/doorlog/internal/domain/model"
	"github.com/okian/doorlog/pkg/logger"
	"github.com/okian/doorlog/pkg/metrics"
)

// Door actions.
const (
	DoorEnter = "enter"
	DoorExit  = "exit"
)

// DefaultValidUsers are the codes admitted when none are configured.
var DefaultValidUsers = []string{"MJ235AA", "CK523BB"}

// Decision is the door controller's answer to one request.
type Decision string

const (
	DecisionEntered       Decision = "entered"
	DecisionExited        Decision = "exited"
	DecisionAlreadyInside Decision = "already_inside"
	DecisionOccupied      Decision = "occupied"
	DecisionNotOccupant   Decision = "not_occupant"
	DecisionInvalidCode   Decision = "invalid_code"
)

// Granted reports whether the decision let someone through.
func (d Decision) Granted() bool {
	return d == DecisionEntered || d == DecisionExited
}

// Publisher sends one door message.
type Publisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

// Door admits one valid user at a time and publishes the door messages the
// monitor consumes.
type Door struct {
	mu       sync.Mutex
	pub      Publisher
	clock    *clock.Clock
	valid    []string
	occupant string
	logger   logger.Logger
}

// NewDoor builds a door controller. A nil clock starts from
// clock.DefaultReference; an empty user list falls back to DefaultValidUsers.
func NewDoor(pub Publisher, clk *clock.Clock, validUsers []string, log logger.Logger) *Door {
	if clk == nil {
		clk = clock.New(nil)
	}
	if len(validUsers) == 0 {
		validUsers = DefaultValidUsers
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Door{pub: pub, clock: clk, valid: slices.Clone(validUsers), logger: log}
}

// Occupant returns the user inside, or "" when the area is free.
func (d *Door) Occupant() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.occupant
}

// Enter requests entry for code.
func (d *Door) Enter(ctx context.Context, code string) (Decision, error) {
	return d.Handle(ctx, DoorEnter, code)
}

// Exit requests exit for code.
func (d *Door) Exit(ctx context.Context, code string) (Decision, error) {
	return d.Handle(ctx, DoorExit, code)
}

// Handle applies one request. Denials are decisions, not errors; an error
// means the action was unknown or a publish failed, and the occupancy is then
// left as it was.
func (d *Door) Handle(ctx context.Context, action, code string) (Decision, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	code = strings.TrimSpace(code)

	d.mu.Lock()
	defer d.mu.Unlock()

	if !slices.Contains(d.valid, code) {
		return d.decide(ctx, DecisionInvalidCode, code), nil
	}

	switch action {
	case DoorEnter:
		switch {
		case d.occupant == code:
			return d.decide(ctx, DecisionAlreadyInside, code), nil
		case d.occupant != "":
			return d.decide(ctx, DecisionOccupied, code), nil
		}
		if err := d.pub.Publish(ctx, model.ChannelUser, code); err != nil {
			return "", fmt.Errorf("publish user: %w", err)
		}
		if err := d.pub.Publish(ctx, model.ChannelEnter, clock.Format(d.clock.Now())); err != nil {
			return "", fmt.Errorf("publish enter: %w", err)
		}
		d.occupant = code
		return d.decide(ctx, DecisionEntered, code), nil

	case DoorExit:
		if d.occupant != code {
			return d.decide(ctx, DecisionNotOccupant, code), nil
		}
		if err := d.pub.Publish(ctx, model.ChannelExit, clock.Format(d.clock.Now())); err != nil {
			return "", fmt.Errorf("publish exit: %w", err)
		}
		d.occupant = ""
		return d.decide(ctx, DecisionExited, code), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (d *Door) decide(ctx context.Context, dec Decision, code string) Decision {
	metrics.RecordAccessDecision(string(dec))
	d.logger.Info(ctx, "door decision",
		logger.String("user", code),
		logger.String("decision", string(dec)),
	)
	return dec
}
