package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/meter-node/internal/clock"
	"github.com/sweeney/meter-node/internal/config"
	"github.com/sweeney/meter-node/internal/counter"
	"github.com/sweeney/meter-node/internal/eeprom"
	"github.com/sweeney/meter-node/internal/pin"
	"github.com/sweeney/meter-node/internal/pulse"
	"github.com/sweeney/meter-node/internal/report"
	"github.com/sweeney/meter-node/internal/sched"
	"github.com/sweeney/meter-node/internal/settings"
	"github.com/sweeney/meter-node/internal/status"
	"github.com/sweeney/meter-node/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the meter daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runDaemon()
	},
}

// reportTask wraps a meter's interval so the status tracker sees the
// reported delta. Firing order within the task is meter first: the delta
// must reach the persistent counter before anything else observes it.
type reportTask struct {
	meter   *pulse.Meter
	tracker *status.Tracker
}

func (t *reportTask) OnInterval() {
	delta := t.meter.Pending()
	t.meter.OnInterval()
	t.tracker.RecordReport(t.meter.Name(), delta)
}

func runDaemon() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := eeprom.OpenFile(cfg.Storage.Path, cfg.Storage.Size)
	if err != nil {
		return err
	}

	seeds, err := settings.Load(store, cfg.Storage.SettingsAddr)
	if err != nil {
		if !errors.Is(err, settings.ErrNoRecord) {
			log.Printf("settings: %v", err)
		}
		log.Printf("no settings record, counters seed from zero")
	}

	reporter := report.NewRealReporter(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	defer reporter.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:           cfg.Tick.Duration().Milliseconds(),
		DebounceSamples:  cfg.DebounceSamples,
		ReportIntervalMs: cfg.ReportInterval.Duration().Milliseconds(),
		FlushIntervalMs:  cfg.FlushInterval.Duration().Milliseconds(),
		Broker:           cfg.MQTT.Broker,
		HTTPListen:       cfg.HTTP.Listen,
		StoragePath:      cfg.Storage.Path,
	}, meterNames(cfg))

	sch := sched.New()
	var meters []*pulse.Meter
	var counters []*counter.Persistent

	for _, mc := range cfg.Meters {
		c, err := counter.New(store, mc.Name, mc.Base, mc.Slots)
		if err != nil {
			return err
		}
		if err := c.Init(seedFor(seeds, mc.Name)); err != nil {
			return err
		}

		p, err := pin.NewRealReader(mc.Pin)
		if err != nil {
			return err
		}
		defer p.Close()

		m, err := pulse.New(mc.Name, p, c, reporter, cfg.DebounceSamples)
		if err != nil {
			return err
		}

		if err := sch.Register(&reportTask{meter: m, tracker: tracker}, cfg.ReportInterval.Duration()); err != nil {
			return err
		}
		if err := sch.Register(c, cfg.FlushInterval.Duration()); err != nil {
			return err
		}

		meters = append(meters, m)
		counters = append(counters, c)
		log.Printf("meter %s: pin=%d total=%d", mc.Name, mc.Pin, c.Value())
	}

	if cfg.HTTP.Listen != "" {
		srv := web.New(cfg.HTTP.Listen, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Listen)
	}

	if err := reporter.System(report.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	log.Printf("started: tick=%v report=%v flush=%v broker=%s",
		cfg.Tick, cfg.ReportInterval, cfg.FlushInterval, cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.Tick.Duration())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(meters, counters, sch, tracker, reporter, reporter,
		clock.NewWall(), ticker.C, sigCh)
}

// runLoop drives sampling and scheduling until a shutdown signal arrives.
// Sampling runs first on every tick — pulse timing fidelity depends on it
// being the highest-frequency operation — then the scheduler fires whatever
// is due.
func runLoop(meters []*pulse.Meter, counters []*counter.Persistent, sch *sched.Scheduler,
	tracker *status.Tracker, reporter report.Reporter, connStatus report.ConnectionStatus,
	clk clock.Clock, tick <-chan time.Time, sig <-chan os.Signal) error {

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if err := reporter.System(report.SystemEvent{
				Timestamp: time.Now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}

			// Final flush so at most the current interval's pulses ride
			// on the next boot's storage state.
			for _, c := range counters {
				if err := c.Flush(); err != nil {
					log.Printf("shutdown flush %s: %v", c.Name(), err)
				}
			}
			return nil

		case <-tick:
			for _, m := range meters {
				if err := m.Sample(); err != nil {
					log.Printf("sample error: %v", err)
				}
			}

			sch.Tick(clk.Now())

			for _, m := range meters {
				tracker.UpdateMeter(m.Name(), m.Total(), m.Pending())
			}
			if connStatus != nil {
				tracker.SetMQTTConnected(connStatus.IsConnected())
			}
		}
	}
}

func meterNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Meters))
	for _, m := range cfg.Meters {
		names = append(names, m.Name)
	}
	return names
}

// seedFor maps a meter name to its settings seed. Meters beyond the fixed
// record layout seed from zero.
func seedFor(rec settings.Record, name string) int64 {
	switch name {
	case "cold":
		return rec.Cold
	case "hot":
		return rec.Hot
	}
	return 0
}
