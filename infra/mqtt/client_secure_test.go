package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/vpp/core/mqtt"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
}

func TestLoadTLSConfigErrors(t *testing.T) {
	cert, key, ca := generateCert(t)
	empty := filepath.Join(t.TempDir(), "empty.pem")
	require.NoError(t, os.WriteFile(empty, []byte("no pem here"), 0o644))
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing paths", Config{ClientCert: cert}, "requires client_cert"},
		{"bad key pair", Config{ClientCert: cert, ClientKey: ca + ".missing", CABundle: ca}, "load cert"},
		{"missing ca", Config{ClientCert: cert, ClientKey: key, CABundle: ca + ".missing"}, "read ca"},
		{"empty ca", Config{ClientCert: cert, ClientKey: key, CABundle: empty}, "no certificate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.LoadTLSConfig()
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := NewClientOptions(Config{Broker: "ssl://localhost:8883", UseTLS: true})
	assert.Error(t, err)
	opts, err := NewClientOptions(Config{Broker: "ssl://localhost:8883", UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca})
	require.NoError(t, err)
	assert.NotNil(t, opts.TLSConfig)
	assert.Error(t, Config{Enabled: true, Broker: "ssl://localhost:8883", UseTLS: true}.Validate())
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}

	anon, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", Password: "p"})
	require.NoError(t, err)
	assert.Empty(t, anon.Password, "a password without a username is ignored")
}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func battery(values ...float64) coremqtt.Setpoint {
	return coremqtt.Setpoint{RunID: "run-1", Resource: "battery_storage", Unit: "MW", Values: values}
}

func TestQoSSettings(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", AckTopic: "a", QoS: map[string]byte{"setpoint": 2, "ack": 1}}
	cli, err := NewPahoClient(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, mc.subscribed)
	assert.Equal(t, byte(1), mc.subscribed[0].qos)

	cmdID, err := cli.SendSetpoint(battery(10, -5))
	require.NoError(t, err)
	require.Len(t, mc.published, 1)
	assert.Equal(t, byte(2), mc.published[0].qos)
	assert.Equal(t, "vpp/battery_storage/setpoint", mc.published[0].topic)

	var sent coremqtt.Setpoint
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &sent))
	assert.Equal(t, cmdID, sent.CommandID)
	assert.Equal(t, []float64{10, -5}, sent.Values)
	assert.NotZero(t, sent.Timestamp)

	cli.onAck(nil, mockMessage{[]byte(fmt.Sprintf(`{"command_id":"%s"}`, cmdID))})
	ok, err := cli.WaitForAck(cmdID, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaults(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	_, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", TopicPrefix: "site7"})
	require.NoError(t, err)
	require.NotEmpty(t, mc.subscribed)
	assert.Equal(t, "site7/ack", mc.subscribed[0].topic)
	assert.Equal(t, "vpp-scheduler", mc.opts.ClientID)

	assert.Error(t, Config{Enabled: true}.Validate())
	assert.NoError(t, Config{}.Validate())
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1}
	cli, err := NewPahoClient(cfg)
	require.NoError(t, err)
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "lwt", mc.opts.WillTopic)
	assert.Equal(t, "bye", string(mc.opts.WillPayload))
	cli.Disconnect()
	assert.Empty(t, mc.published, "no publish on disconnect")
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	_, err = cli.SendSetpoint(battery(1))
	require.NoError(t, err)
	assert.Len(t, mc.published, 2)
}

func TestWaitForAckTimeout(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id"})
	require.NoError(t, err)
	cmdID, err := cli.SendSetpoint(battery(1))
	require.NoError(t, err)
	ok, err := cli.WaitForAck(cmdID, time.Millisecond)
	assert.ErrorIs(t, err, coremqtt.ErrAckTimeout)
	assert.False(t, ok)

	_, err = cli.WaitForAck("unknown", time.Millisecond)
	assert.Error(t, err)
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published   []published
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
