// Command dht-app reads DHT11/DHT22 sensors.
//
// Direct mode opens one sensor and prints a line per read:
//
//	dht-app -variant dht22 -pin 4
//
// Board mode publishes an embedded board config and runs the HAL over the bus,
// printing the values it publishes:
//
//	dht-app -board rpi-porch
//
// -sim replaces the GPIO lines with simulated sensors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/errcode"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/config"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/report"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

func main() {
	var (
		board    = flag.String("board", "", "embedded board config to run through the HAL")
		variant  = flag.String("variant", "dht11", "sensor type for direct mode: dht11, dht22, am2302")
		pin      = flag.Int("pin", 4, "GPIO number for direct mode")
		sim      = flag.Bool("sim", false, "use simulated sensors")
		every    = flag.Duration("every", 2*time.Second, "interval between reads")
		count    = flag.Int("count", 0, "stop after this many reads (direct mode); 0 runs until interrupted")
		level    = flag.String("log-level", "info", "log level")
		pinName  = flag.String("pin-name", "GPIO%d", "periph pin name format")
		priority = flag.Int("rt-priority", 0, "SCHED_FIFO priority while sampling; 0 disables")
	)
	flag.Parse()

	log := logrus.New()
	lvl, err := logrus.ParseLevel(*level)
	if err != nil {
		log.WithError(err).Fatal("bad -log-level")
	}
	log.SetLevel(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := hal.Options{Sim: *sim, PinName: *pinName, RTPriority: *priority, Log: log}
	if *board != "" {
		err = runBoard(ctx, log, *board, opts, *every)
	} else {
		err = runDirect(ctx, log, *variant, *pin, opts, *every, *count)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("dht-app")
	}
}

// runDirect mirrors the classic test loop: read N bytes, print, sleep.
func runDirect(ctx context.Context, log *logrus.Logger, name string, pin int, opts hal.Options, every time.Duration, count int) error {
	v, ok := dht.VariantByName(name)
	if !ok {
		return fmt.Errorf("unknown sensor type %q", name)
	}
	if opts.Sim {
		opts.SimFrame = func(p int) [5]byte { return hal.SimFrame(v, p) }
	}
	node, err := hal.OpenNode(v.Name, v, types.DHTParams{Pin: pin}, opts)
	if err != nil {
		return fmt.Errorf("open %s on pin %d: %w", v.Name, pin, err)
	}
	defer node.Close()
	log.WithFields(logrus.Fields{"sensor": v.Name, "pin": pin}).Info("reading")

	buf := make([]byte, node.Size())
	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(every):
			}
		}
		if _, err := node.ReadContext(ctx, buf); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithFields(logrus.Fields{"code": errcode.Of(err), "error": err}).Debug("read failed")
			fmt.Println(report.Failed)
			continue
		}
		r, _ := v.ParseReading(buf)
		fmt.Println(report.Format(r.DeciRH, r.DeciC))
	}
	st := node.Stats()
	log.WithFields(logrus.Fields{
		"reads":     st.Reads,
		"attempts":  st.Attempts,
		"failures":  st.Failures,
		"checksum":  st.ChecksumErrors,
		"timeouts":  st.Timeouts,
		"cache_hit": st.CacheHits,
	}).Info("done")
	return nil
}

func runBoard(ctx context.Context, log *logrus.Logger, board string, opts hal.Options, every time.Duration) error {
	hc, err := config.Section(board, "hal")
	if err != nil {
		return fmt.Errorf("%w (known boards: %v)", err, config.Boards())
	}
	if opts.Sim {
		opts.SimFrame = hal.SimFrames(hc)
	}

	b := bus.NewBus(16)
	halConn := b.NewConnection("hal")
	cfgConn := b.NewConnection("config")
	uiConn := b.NewConnection("ui")

	errc := make(chan error, 1)
	go func() { errc <- hal.Run(ctx, halConn, opts) }()

	cctx := context.WithValue(ctx, config.CtxDeviceKey, board)
	config.NewConfigService(log).Start(cctx, cfgConn)
	if err := report.New(os.Stdout, every, log).Start(ctx, uiConn); err != nil {
		return err
	}

	states := uiConn.Subscribe(hal.TopicState())
	defer uiConn.Unsubscribe(states)
	for {
		select {
		case err := <-errc:
			if err != nil {
				return err
			}
			return ctx.Err()
		case m := <-states.Channel():
			if s, ok := m.Payload.(types.HALState); ok {
				log.WithFields(logrus.Fields{"level": s.Level, "status": s.Status}).Info("hal state")
			}
		}
	}
}
