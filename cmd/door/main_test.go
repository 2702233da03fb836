package main

import (
	"context"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/doorlog/internal/config"
	"github.com/okian/doorlog/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fakeBroker struct {
	recorder
	connectErr error
	closed     int
}

func (b *fakeBroker) Connect(context.Context) error { return b.connectErr }
func (b *fakeBroker) ID() string                    { return "door-test" }
func (b *fakeBroker) Close()                        { b.closed++ }

func useBroker(t *testing.T, b *fakeBroker) {
	orig := newClient
	newClient = func(*config.Config, logger.Logger) brokerClient { return b }
	t.Cleanup(func() { newClient = orig })
}

func TestConnect(t *testing.T) {
	convey.Convey("Given the default door configuration", t, func() {
		ctx := context.Background()

		convey.Convey("When the broker refuses the connection", func() {
			b := &fakeBroker{connectErr: errors.New("connection refused")}
			useBroker(t, b)
			s, err := connect(ctx)

			convey.Convey("Then the error is returned and the client is closed", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "connection refused")
				convey.So(s, convey.ShouldBeNil)
				convey.So(b.closed, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the broker accepts the connection", func() {
			b := &fakeBroker{}
			useBroker(t, b)
			s, err := connect(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the door publishes through that client", func() {
				dec, err := s.door.Enter(ctx, "MJ235AA")
				convey.So(err, convey.ShouldBeNil)
				convey.So(dec.Granted(), convey.ShouldBeTrue)
				convey.So(len(b.sent), convey.ShouldEqual, 2)

				s.Close()
				convey.So(b.closed, convey.ShouldEqual, 1)
			})
		})
	})
}
