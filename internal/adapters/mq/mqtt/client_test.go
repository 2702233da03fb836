package mqtt

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/require"
)

const prefix = "uos/cet235-test"

// startBroker runs an in-process broker on a free local port.
func startBroker(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	broker := mochi.New(nil)
	require.NoError(t, broker.AddHook(&auth.AllowHook{}, nil))
	require.NoError(t, broker.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "doorlog-test",
		Address: addr,
	})))
	require.NoError(t, broker.Serve())
	t.Cleanup(func() { _ = broker.Close() })

	return "tcp://" + addr
}

type received struct {
	mu   sync.Mutex
	msgs [][2]string
}

func (r *received) handle(channel, payload string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, [2]string{channel, payload})
	r.mu.Unlock()
}

func (r *received) snapshot() [][2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][2]string, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func TestTopics(t *testing.T) {
	require.Equal(t, "uos/cet235/door/enter", Topic("uos/cet235", "enter"))
	require.Equal(t, "uos/cet235/door/user", Topic("uos/cet235/", "user"))

	ch, ok := ChannelOf("uos/cet235", "uos/cet235/door/exit")
	require.True(t, ok)
	require.Equal(t, "exit", ch)

	_, ok = ChannelOf("uos/cet235", "uos/other/door/exit")
	require.False(t, ok)
}

func TestClientID(t *testing.T) {
	id := ClientID("MQTT Sub Sim")
	require.True(t, strings.HasPrefix(id, "MQTTSubSim-"))
	require.Len(t, id, len("MQTTSubSim-")+36)
	require.NotEqual(t, id, ClientID("MQTT Sub Sim"))
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	url := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := New(url, "MQTT Sub Sim", prefix, WithTimeout(5*time.Second))
	require.NoError(t, sub.Connect(ctx))
	t.Cleanup(sub.Close)

	var got received
	require.NoError(t, sub.Subscribe(ctx, got.handle))

	pub := New(url, "MQTT Pub Sim", prefix, WithQoS(1))
	require.NoError(t, pub.Connect(ctx))
	t.Cleanup(pub.Close)
	require.True(t, pub.IsConnected())

	require.NoError(t, pub.Publish(ctx, "user", "MJ235AA"))
	require.NoError(t, pub.Publish(ctx, "enter", "07/05/2023 14:00:00"))
	require.NoError(t, pub.Publish(ctx, "exit", "07/05/2023 14:00:30"))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 3 }, 5*time.Second, 20*time.Millisecond)
	require.ElementsMatch(t, [][2]string{
		{"user", "MJ235AA"},
		{"enter", "07/05/2023 14:00:00"},
		{"exit", "07/05/2023 14:00:30"},
	}, got.snapshot())
}

func TestPublishErrors(t *testing.T) {
	c := New("tcp://127.0.0.1:1", "offline", prefix, WithTimeout(100*time.Millisecond), WithClientID("fixed-id"))
	require.Equal(t, "fixed-id", c.ID())

	err := c.Publish(context.Background(), "window", "open")
	require.True(t, errors.Is(err, ErrUnknownChannel))

	err = c.Publish(context.Background(), "enter", "07/05/2023 14:00:00")
	require.True(t, errors.Is(err, ErrNotConnected))

	err = c.Subscribe(context.Background(), func(string, string) {})
	require.True(t, errors.Is(err, ErrNotConnected))
}
