package publish

import (
	"encoding/json"
	"errors"
	"math"
	"log/slog"
	"testing"
	"time"

	"github.com/angas/sacplot/plot"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                       { return true }
func (t doneToken) WaitTimeout(_ time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient only implements Publish, other calls panic through the nil interface.
type fakeClient struct {
	mqtt.Client
	sent []published
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	return doneToken{err: c.err}
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	p := newWithClient(client, slog.Default(), "lab/sac/")

	s := plot.Summary{Kind: plot.KindEval, Path: "logs/eval.csv", Rows: 4, LastStep: 20000, LastValue: -180.5}
	require.NoError(t, p.Publish(s))

	require.Len(t, client.sent, 1)
	msg := client.sent[0]
	require.Equal(t, "lab/sac/eval", msg.topic)
	require.True(t, msg.retained)

	var decoded plot.Summary
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	require.Equal(t, 4, decoded.Rows)
	require.Equal(t, -180.5, decoded.LastValue)
}

func TestPublishNaNSummary(t *testing.T) {
	client := &fakeClient{}
	p := newWithClient(client, slog.Default(), "sacplot")

	require.NoError(t, p.Publish(plot.Summary{Kind: plot.KindTrain, Rows: 3, LastStep: 3, LastValue: math.NaN(), LastSmoothed: math.NaN()}))
	require.Len(t, client.sent, 1)
	require.Contains(t, string(client.sent[0].payload), `"lastValue":null`)
}

func TestPublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := newWithClient(client, slog.Default(), "sacplot")

	err := p.Publish(plot.Summary{Kind: plot.KindTrain})
	require.ErrorContains(t, err, "sacplot/train")
	require.ErrorContains(t, err, "not connected")
}

func TestPahoLogger(t *testing.T) {
	var _ mqtt.Logger = pahoLogger{}
}
