package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/vpp/core/logger"
	"github.com/kilianp07/vpp/core/monitoring"
	coremqtt "github.com/kilianp07/vpp/core/mqtt"
	infralog "github.com/kilianp07/vpp/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements coremqtt.Client using Eclipse Paho. Acks arrive on
// a single topic and are matched to pending setpoints by command ID.
type PahoClient struct {
	cli         pahoClient
	prefix      string
	setpointQoS byte
	retries     int
	backoff     time.Duration
	log         logger.Logger

	mu      sync.Mutex
	pending map[string]chan struct{}
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the broker and subscribes to the ack topic on
// every (re)connection.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := infralog.New("mqtt_client")
	pc := &PahoClient{
		prefix:      cfg.TopicPrefix,
		setpointQoS: cfg.QoS["setpoint"],
		retries:     cfg.MaxRetries,
		backoff:     time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:         log,
		pending:     make(map[string]chan struct{}),
	}
	ackQoS := cfg.QoS["ack"]
	opts.OnConnect = func(c paho.Client) {
		log.Infof("connected to %s", cfg.Broker)
		if token := c.Subscribe(cfg.AckTopic, ackQoS, pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.AckTopic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		CommandID string `json:"command_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.log.Warnf("undecodable ack: %v", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.pending[m.CommandID]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Topic returns the setpoint topic of resource.
func (p *PahoClient) Topic(resource string) string {
	return fmt.Sprintf("%s/%s/setpoint", p.prefix, resource)
}

// SendSetpoint publishes sp, retrying with exponential backoff, and
// returns the command identifier used for acknowledgment tracking.
func (p *PahoClient) SendSetpoint(sp coremqtt.Setpoint) (string, error) {
	if sp.CommandID == "" {
		sp.CommandID = uuid.NewString()
	}
	if sp.Timestamp == 0 {
		sp.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(sp)
	if err != nil {
		return "", err
	}

	topic := p.Topic(sp.Resource)
	if err := p.publish(topic, payload); err != nil {
		monitoring.CaptureException(err, map[string]string{
			"module":   "mqtt",
			"resource": sp.Resource,
			"run_id":   sp.RunID,
		})
		return "", err
	}
	p.log.Debugf("setpoint %s sent to %s", sp.CommandID, topic)

	p.mu.Lock()
	p.pending[sp.CommandID] = make(chan struct{}, 1)
	p.mu.Unlock()
	return sp.CommandID, nil
}

func (p *PahoClient) publish(topic string, payload []byte) error {
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		token := p.cli.Publish(topic, p.setpointQoS, false, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			return nil
		}
		p.log.Warnf("publish %s attempt %d: %v", topic, attempt+1, err)
		if attempt < p.retries {
			time.Sleep(p.backoff << attempt)
		}
	}
	return err
}

// WaitForAck blocks until the ack of commandID arrives or timeout expires.
// The command is forgotten either way.
func (p *PahoClient) WaitForAck(commandID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.pending[commandID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("unknown command %q", commandID)
	}
	defer func() {
		p.mu.Lock()
		delete(p.pending, commandID)
		p.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, coremqtt.ErrAckTimeout
	}
}

// Disconnect closes the connection, letting in-flight work finish for 250ms.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
