package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap/zaptest"

	"github.com/ayusman/signbridge/internal/gesture"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	publishErr error
	messages   []published
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }

func (c *fakeClient) Connect() mqtt.Token {
	if c.connectErr == nil {
		c.connected = true
	}
	return &doneToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr == nil {
		c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	}
	return &doneToken{err: c.publishErr}
}

func (c *fakeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	return &doneToken{}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &doneToken{}
}

func (c *fakeClient) Unsubscribe(...string) mqtt.Token         { return &doneToken{} }
func (c *fakeClient) AddRoute(string, mqtt.MessageHandler)     {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

var testConfig = MQTTConfig{
	Broker:      "tcp://localhost:1883",
	ClientID:    "test",
	TopicPrefix: "signbridge",
	QoS:         1,
}

func TestMQTTEmitter_Publish(t *testing.T) {
	client := &fakeClient{}
	e := newMQTTWithClient(testConfig, client, zaptest.NewLogger(t))

	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	event := gesture.LetterEvent{SessionID: "abc", Letter: "B", Confidence: 0.88, Text: "AB"}
	if err := e.Publish(event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(client.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(client.messages))
	}
	msg := client.messages[0]
	if msg.topic != "signbridge/abc/letters" {
		t.Errorf("unexpected topic %q", msg.topic)
	}
	if msg.qos != 1 {
		t.Errorf("expected qos 1, got %d", msg.qos)
	}

	var got gesture.LetterEvent
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Letter != "B" || got.Text != "AB" {
		t.Errorf("unexpected payload %+v", got)
	}

	if s := e.Stats(); !s.Connected || s.Published != 1 || s.Errors != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestMQTTEmitter_NotConnected(t *testing.T) {
	client := &fakeClient{}
	e := newMQTTWithClient(testConfig, client, zaptest.NewLogger(t))

	if err := e.Publish(gesture.LetterEvent{SessionID: "x", Letter: "A"}); err == nil {
		t.Error("expected error before connect")
	}
	if s := e.Stats(); s.Errors != 1 {
		t.Errorf("expected 1 error, got %d", s.Errors)
	}
}

func TestMQTTEmitter_ConnectFailure(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("refused")}
	e := newMQTTWithClient(testConfig, client, zaptest.NewLogger(t))

	if err := e.Connect(context.Background()); err == nil {
		t.Error("expected connect error")
	}
}

func TestMQTTEmitter_PublishFailureAndClose(t *testing.T) {
	client := &fakeClient{}
	e := newMQTTWithClient(testConfig, client, zaptest.NewLogger(t))
	if err := e.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	client.publishErr = errors.New("broker gone")
	if err := e.Publish(gesture.LetterEvent{SessionID: "x", Letter: "A"}); err == nil {
		t.Error("expected publish error")
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.connected || e.Stats().Connected {
		t.Error("expected disconnected after close")
	}
}

func TestFanout(t *testing.T) {
	var got []string
	f := Fanout{
		Func(func(e gesture.LetterEvent) { got = append(got, "first:"+e.Letter) }),
		Nop{},
		Func(func(e gesture.LetterEvent) { got = append(got, "second:"+e.Letter) }),
	}

	if err := f.Publish(gesture.LetterEvent{Letter: "K"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(got) != 2 || got[0] != "first:K" || got[1] != "second:K" {
		t.Errorf("unexpected deliveries %v", got)
	}

	failing := newMQTTWithClient(testConfig, &fakeClient{}, zaptest.NewLogger(t))
	f = append(f, failing)
	if err := f.Publish(gesture.LetterEvent{Letter: "K"}); err == nil {
		t.Error("expected joined error from disconnected emitter")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
