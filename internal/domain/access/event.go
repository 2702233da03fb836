package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/doorlog/internal/domain/clock"
	"github.com/okian/doorlog/internal/domain/model"
)

// Kind tags an Event.
type Kind int

// Event kinds.
const (
	KindEnterAt Kind = iota + 1
	KindExitAt
	KindUserIs
)

func (k Kind) String() string {
	switch k {
	case KindEnterAt:
		return "EnterAt"
	case KindExitAt:
		return "ExitAt"
	case KindUserIs:
		return "UserIs"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a tagged access event. At is set for EnterAt and ExitAt, User
// for UserIs.
type Event struct {
	Kind Kind
	At   time.Time
	User string
}

// EnterAt builds an entry event.
func EnterAt(t time.Time) Event { return Event{Kind: KindEnterAt, At: t} }

// ExitAt builds an exit event.
func ExitAt(t time.Time) Event { return Event{Kind: KindExitAt, At: t} }

// UserIs builds an identity event.
func UserIs(id string) Event { return Event{Kind: KindUserIs, User: id} }

// ParseMessage turns a raw door message into an Event.
func ParseMessage(channel, payload string) (Event, error) {
	payload = strings.TrimSpace(payload)
	switch channel {
	case model.ChannelEnter, model.ChannelExit:
		t, err := clock.Parse(payload)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %s timestamp %q: %w", ErrMalformedPayload, channel, payload, err)
		}
		if channel == model.ChannelEnter {
			return EnterAt(t), nil
		}
		return ExitAt(t), nil
	case model.ChannelUser:
		if payload == "" {
			return Event{}, fmt.Errorf("%w: empty user id", ErrMalformedPayload)
		}
		return UserIs(payload), nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
}
