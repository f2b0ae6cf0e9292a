// Package report prints the latest sensor readings seen on the bus at a fixed
// interval.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// Failed is printed for a sensor whose last read did not produce a value.
const Failed = "Read failed (checksum or timeout)"

var (
	topicConfigApp = bus.T("config", "app")
	topicValues    = bus.T("hal", "cap", "env", bus.WildOne, bus.WildOne, "value")
	topicStatus    = bus.T("hal", "cap", "env", bus.WildOne, bus.WildOne, "status")
)

// Format renders a reading in whole units, truncated toward zero.
func Format(deciRH, deciC int32) string {
	return fmt.Sprintf("Humidity: %d %%, Temperature: %d C", deciRH/10, deciC/10)
}

// AppConfig is the payload of config/app.
type AppConfig struct {
	ReportEveryMs uint32 `json:"report_every_ms"`
}

type sensor struct {
	deciC, deciRH int32
	hasT, hasH    bool
	link          types.Link
}

type Service struct {
	out   io.Writer
	log   logrus.FieldLogger
	every time.Duration

	sensors map[string]*sensor
}

// New returns a reporter writing to out every interval until config/app says
// otherwise.
func New(out io.Writer, every time.Duration, log logrus.FieldLogger) *Service {
	if every <= 0 {
		every = 2 * time.Second
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{out: out, log: log.WithField("svc", "report"), every: every, sensors: map[string]*sensor{}}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigApp)
	valSub := conn.Subscribe(topicValues)
	stSub := conn.Subscribe(topicStatus)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(valSub)
	defer conn.Unsubscribe(stSub)

	tick := time.NewTicker(s.every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("report service stopping")
			return
		case <-tick.C:
			s.print()
		case m := <-valSub.Channel():
			s.onValue(m)
		case m := <-stSub.Channel():
			st, ok := m.Payload.(types.CapabilityStatus)
			if !ok {
				continue
			}
			s.get(m.Topic).link = st.Link
			if st.Link == types.LinkDegraded {
				s.log.WithFields(logrus.Fields{"sensor": m.Topic.At(4), "error": st.Error}).Debug("read degraded")
			}
		case m := <-cfgSub.Channel():
			cfg, err := decodeAppConfig(m.Payload)
			if err != nil || cfg.ReportEveryMs == 0 {
				s.log.WithField("payload", m.Payload).Warn("ignoring app config")
				continue
			}
			s.every = time.Duration(cfg.ReportEveryMs) * time.Millisecond
			tick.Reset(s.every)
			s.log.WithField("every", s.every).Info("report interval set")
		}
	}
}

// decodeAppConfig accepts the typed struct or the generic object the config
// service publishes.
func decodeAppConfig(p any) (AppConfig, error) {
	switch v := p.(type) {
	case AppConfig:
		return v, nil
	case *AppConfig:
		return *v, nil
	case map[string]any:
		ms, ok := toUint32(v["report_every_ms"])
		if !ok {
			return AppConfig{}, fmt.Errorf("report_every_ms: bad value %v", v["report_every_ms"])
		}
		return AppConfig{ReportEveryMs: ms}, nil
	default:
		return AppConfig{}, fmt.Errorf("app config: unexpected %T", p)
	}
}

func toUint32(v any) (uint32, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint32:
		return x, true
	case float32:
		n = int64(x)
	case float64:
		n = int64(x)
	default:
		return 0, false
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

func (s *Service) get(topic bus.Topic) *sensor {
	name, _ := topic.At(4).(string)
	e := s.sensors[name]
	if e == nil {
		e = &sensor{}
		s.sensors[name] = e
	}
	return e
}

func (s *Service) onValue(m *bus.Message) {
	e := s.get(m.Topic)
	switch v := m.Payload.(type) {
	case types.TemperatureValue:
		e.deciC, e.hasT = int32(v.DeciC), true
	case types.HumidityValue:
		e.deciRH, e.hasH = int32(v.RHx100)/10, true
	}
}

func (s *Service) print() {
	names := make([]string, 0, len(s.sensors))
	for n := range s.sensors {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		e := s.sensors[n]
		switch {
		case e.link == types.LinkDown && !(e.hasT && e.hasH):
			// not read yet
		case e.link == types.LinkDegraded || !e.hasT || !e.hasH:
			fmt.Fprintf(s.out, "%s: %s\n", n, Failed)
		default:
			fmt.Fprintf(s.out, "%s: %s\n", n, Format(e.deciRH, e.deciC))
		}
	}
}

// Start the report service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
