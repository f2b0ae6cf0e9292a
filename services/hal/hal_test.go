// services/hal/hal_test.go
package hal

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

var simCfg = types.HALConfig{
	Devices: []types.HALDevice{
		{ID: "porch", Type: "dht22", Params: map[string]any{"pin": 4}},
		{ID: "shed", Type: "dht11", Params: map[string]any{"pin": 5, "max_attempts": 2}},
	},
	Pollers: []types.PollSpec{
		{Kind: types.KindTemperature, Name: "porch", IntervalMs: 20},
		{Kind: types.KindHumidity, Name: "shed", IntervalMs: 20, JitterMs: 5},
	},
}

func latest(t *testing.T, conn *bus.Connection, topic bus.Topic) any {
	t.Helper()
	sub := conn.Subscribe(topic)
	defer conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		return m.Payload
	case <-time.After(2 * time.Second):
		t.Fatalf("no message on %s", topic)
		return nil
	}
}

func TestRun_SimulatedSensors(t *testing.T) {
	b := bus.NewBus(64)
	halConn := b.NewConnection("hal")
	client := b.NewConnection("client")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- Run(ctx, halConn, Options{Sim: true, SimFrame: SimFrames(simCfg)}) }()

	client.Publish(client.NewMessage(TopicConfig(), simCfg, true))

	// Pollers publish both capabilities of each device.
	cases := []struct {
		kind, name string
		want       any
	}{
		{"temperature", "porch", types.TemperatureValue{DeciC: 235}},
		{"humidity", "porch", types.HumidityValue{RHx100: 4560}},
		{"temperature", "shed", types.TemperatureValue{DeciC: 230}},
		{"humidity", "shed", types.HumidityValue{RHx100: 4500}},
	}
	for _, tc := range cases {
		got := latest(t, client, TopicValue("env", tc.kind, tc.name))
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s/%s (-want +got):\n%s", tc.kind, tc.name, diff)
		}
	}

	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	m, err := client.RequestWait(rctx, client.NewMessage(TopicControl("env", "humidity", "porch", VerbStats), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	st, ok := m.Payload.(dht.Stats)
	if !ok || st.Refreshes == 0 || st.Failures != 0 {
		t.Fatalf("stats %#v", m.Payload)
	}
	if st.Reads != st.Refreshes+st.CacheHits {
		t.Fatalf("stats %+v", st)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestOpenNode_Sim(t *testing.T) {
	n, err := OpenNode("direct", dht.DHT22, types.DHTParams{Pin: 17}, Options{Sim: true})
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	buf := make([]byte, n.Size())
	if _, err := n.Read(buf); err != nil {
		t.Fatal(err)
	}
	want := [5]byte{0x01, 0xC2, 0x00, 0xE6}
	if diff := cmp.Diff(want[:4], buf); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestSimFrames(t *testing.T) {
	frame := SimFrames(simCfg)
	if got, want := frame(5), dht.DHT11.Frame(457, 236); got != [5]byte(want) {
		t.Fatalf("dht11 pin: %x want %x", got, want)
	}
	if got, want := frame(9), dht.DHT22.Frame(461, 240); got != [5]byte(want) {
		t.Fatalf("unlisted pin: %x want %x", got, want)
	}

	// Generic section as published on config/hal.
	frame = SimFrames(map[string]any{"devices": []any{
		map[string]any{"id": "d", "type": "dht11", "params": map[string]any{"pin": float64(7)}},
	}})
	if got, want := frame(7), dht.DHT11.Frame(459, 238); got != [5]byte(want) {
		t.Fatalf("generic config: %x want %x", got, want)
	}
}

func TestDeviceTypes(t *testing.T) {
	if diff := cmp.Diff([]string{"am2302", "dht11", "dht22"}, DeviceTypes()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
