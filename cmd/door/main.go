// Command door is the door controller. It admits one valid user at a time
// and publishes enter, exit and user messages for the monitor.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/doorlog/internal/adapters/mq/mqtt"
	service "github.com/okian/doorlog/internal/app"
	"github.com/okian/doorlog/internal/config"
	"github.com/okian/doorlog/internal/domain/clock"
	"github.com/okian/doorlog/internal/doorsim"
	"github.com/okian/doorlog/pkg/logger"
)

const clientName = "MQTT Pub Sim"

func main() {
	root := &cobra.Command{
		Use:   "door",
		Short: "Door controller for the access monitor",
		Long: `door admits one valid user at a time and publishes the enter, exit
and user messages the monitor turns into access periods.

Broker, topic prefix and valid user codes come from the monitor
configuration (DOORLOG_CONFIG and DOORLOG_*).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log", "", "Also append logs to this file")

	root.AddCommand(newInteractiveCmd(), newSimulateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// brokerClient is the part of the MQTT client the door needs.
type brokerClient interface {
	service.Publisher
	Connect(ctx context.Context) error
	ID() string
	Close()
}

// newClient builds the door's broker client. Tests replace it.
var newClient = func(cfg *config.Config, log logger.Logger) brokerClient {
	return mqtt.New(cfg.BrokerURL, clientName, cfg.TopicPrefix, mqtt.WithLogger(log))
}

// session is a connected door controller.
type session struct {
	cfg    *config.Config
	door   *service.Door
	client brokerClient
}

func (s *session) Close() {
	s.client.Close()
}

// connect loads the configuration and connects a door controller to the
// broker. The door clock starts at the host time.
func connect(ctx context.Context) (*session, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Get().Named("door")

	client := newClient(cfg, log)
	if err := client.Connect(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.BrokerURL, err)
	}

	clk := clock.New(nil)
	clk.Set(time.Now().UTC())

	log.Info(ctx, "door ready",
		logger.String("broker", cfg.BrokerURL),
		logger.String("client_id", client.ID()),
		logger.Any("valid_users", cfg.ValidUsers))

	return &session{
		cfg:    cfg,
		door:   service.NewDoor(client, clk, cfg.ValidUsers, log),
		client: client,
	}, nil
}

func setupLogging(cmd *cobra.Command) (func(), error) {
	logFile, _ := cmd.Flags().GetString("log")
	closer, err := doorsim.SetupLogging(logFile)
	if err != nil {
		return nil, err
	}
	return func() { _ = closer.Close() }, nil
}
