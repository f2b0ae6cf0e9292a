package report

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestFormat(t *testing.T) {
	for _, tc := range []struct {
		rh, c int32
		want  string
	}{
		{450, 230, "Humidity: 45 %, Temperature: 23 C"},
		{652, -101, "Humidity: 65 %, Temperature: -10 C"},
		{0, 0, "Humidity: 0 %, Temperature: 0 C"},
	} {
		if got := Format(tc.rh, tc.c); got != tc.want {
			t.Errorf("Format(%d, %d) = %q", tc.rh, tc.c, got)
		}
	}
}

func TestDecodeAppConfig(t *testing.T) {
	for _, p := range []any{
		AppConfig{ReportEveryMs: 250},
		&AppConfig{ReportEveryMs: 250},
		map[string]any{"report_every_ms": float64(250)},
		map[string]any{"report_every_ms": int64(250)},
		map[string]any{"report_every_ms": 250},
	} {
		got, err := decodeAppConfig(p)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(AppConfig{ReportEveryMs: 250}, got); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	}
}

func TestDecodeAppConfig_Rejects(t *testing.T) {
	for _, p := range []any{
		map[string]any{},
		map[string]any{"report_every_ms": "250"},
		map[string]any{"report_every_ms": -1},
		[]any{250},
	} {
		if _, err := decodeAppConfig(p); err == nil {
			t.Fatalf("%v accepted", p)
		}
	}
}

func TestService_PrintsLatest(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("report")
	pub := b.NewConnection("hal")

	retain := func(topic bus.Topic, v any) { pub.Publish(pub.NewMessage(topic, v, true)) }
	retain(bus.T("hal", "cap", "env", "temperature", "porch", "value"), types.TemperatureValue{DeciC: 235})
	retain(bus.T("hal", "cap", "env", "humidity", "porch", "value"), types.HumidityValue{RHx100: 4560})
	retain(bus.T("hal", "cap", "env", "temperature", "porch", "status"), types.CapabilityStatus{Link: types.LinkUp})
	retain(bus.T("hal", "cap", "env", "temperature", "shed", "status"), types.CapabilityStatus{Link: types.LinkDegraded, Error: "io_error"})
	retain(bus.T("hal", "cap", "env", "temperature", "attic", "status"), types.CapabilityStatus{Link: types.LinkDown})

	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := New(&out, 10*time.Millisecond, nil).Start(ctx, conn); err != nil {
		t.Fatal(err)
	}

	want := "porch: Humidity: 45 %, Temperature: 23 C\nshed: " + Failed + "\n"
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("output:\n%s", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if strings.Contains(out.String(), "attic") {
		t.Fatal("unread sensor reported")
	}
}
