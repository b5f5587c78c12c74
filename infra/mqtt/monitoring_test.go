package mqtt

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/vpp/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func TestSendSetpointErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", AckTopic: "a", BackoffMS: 1})
	require.NoError(t, err)
	_, err = cli.SendSetpoint(battery(1))
	require.Error(t, err)
	assert.Len(t, mc.published, 4, "one call and three retries")
	require.Error(t, mon.err)
	assert.Equal(t, "battery_storage", mon.tags["resource"])
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "run-1", mon.tags["run_id"])
}
