// Package publish sends a summary of each reloaded log to an MQTT broker,
// so dashboards can follow a training run without opening the chart.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/sacplot/plot"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

type Options struct {
	Host        string
	Port        int16
	Username    string
	Password    string
	TopicPrefix string
}

type Publisher struct {
	client mqtt.Client
	logger *slog.Logger
	prefix string
}

func New(opts Options) *Publisher {
	logger := slog.Default().With("module", "publish")
	routePahoLogs(slog.Default().With("module", "mqtt"))

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Host, opts.Port))
	clientOpts.SetClientID(fmt.Sprintf("sacplot-%d", time.Now().UnixNano()))
	clientOpts.SetUsername(opts.Username)
	clientOpts.SetPassword(opts.Password)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.OnConnect = func(client mqtt.Client) {
		logger.Info("mqtt connected", slog.String("broker", opts.Host))
	}
	clientOpts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", slog.Any("error", err))
	}

	return newWithClient(mqtt.NewClient(clientOpts), logger, opts.TopicPrefix)
}

func newWithClient(client mqtt.Client, logger *slog.Logger, prefix string) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		// With connect retry enabled paho keeps trying in the background.
		p.logger.Warn("mqtt broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting mqtt client")
	p.client.Disconnect(250)
}

// Topic is where summaries of the given kind are published.
func (p *Publisher) Topic(kind plot.Kind) string {
	return p.prefix + "/" + string(kind)
}

// Publish sends the summary as a retained JSON message.
func (p *Publisher) Publish(s plot.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	token := p.client.Publish(p.Topic(s.Kind), 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout when publishing to %s", p.Topic(s.Kind))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("error when publishing to %s: %w", p.Topic(s.Kind), err)
	}

	p.logger.Debug("summary published", slog.String("topic", p.Topic(s.Kind)), slog.Int("rows", s.Rows))
	return nil
}
