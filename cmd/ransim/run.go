package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/ransim/analytics"
	"github.com/signalsfoundry/ransim/channel"
	"github.com/signalsfoundry/ransim/internal/config"
	"github.com/signalsfoundry/ransim/internal/logging"
	"github.com/signalsfoundry/ransim/internal/observability"
	"github.com/signalsfoundry/ransim/mobility"
	"github.com/signalsfoundry/ransim/model"
	"github.com/signalsfoundry/ransim/ran"
	"github.com/signalsfoundry/ransim/ric"
	"github.com/signalsfoundry/ransim/sim"
)

var (
	runUntil    time.Duration
	runTick     time.Duration
	runSeed     int64
	runUEs      int
	runReplicas int
	configDir   string
	metricsAddr string
	csvOut      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a scenario and run it on the virtual clock",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd.Context())
	},
}

func init() {
	runCmd.Flags().DurationVar(&runUntil, "until", 30*time.Second, "virtual time to run the simulation for")
	runCmd.Flags().DurationVar(&runTick, "tick", 100*time.Millisecond, "mobility update interval in virtual time")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "seed for all stochastic behaviour; identical seeds replay identical runs")
	runCmd.Flags().IntVar(&runUEs, "ues", 4, "number of user terminals")
	runCmd.Flags().IntVar(&runReplicas, "replicas", 1, "independent simulation replicas to run in parallel")
	runCmd.Flags().StringVar(&configDir, "config-dir", "", "directory of per-node YAML configurations (optional)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint (optional)")
	runCmd.Flags().StringVar(&csvOut, "csv-out", "", "path for the run summary CSV (optional)")
}

func runSimulation(ctx context.Context) error {
	log := logging.NewFromEnv()

	reg := prometheus.NewRegistry()
	collector, err := observability.NewSimCollector(reg)
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error(ctx, "metrics server stopped", logging.Err(err))
			}
		}()
	}

	var csv *analytics.CSVCollector
	if csvOut != "" {
		csv = analytics.NewCSVCollector(csvOut)
	}

	// Replicas are fully independent simulations: each gets its own
	// scheduler, registries, and RNG, so nothing mutable crosses replica
	// boundaries. Only the metrics collector and the analytics sink are
	// shared, and both are safe for concurrent use.
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < runReplicas; i++ {
		replica := i
		g.Go(func() error {
			return runReplica(gctx, replica, log, collector, csv)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if csv != nil {
		if err := csv.Flush(); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

func runReplica(ctx context.Context, replica int, log logging.Logger, collector *observability.SimCollector, csv *analytics.CSVCollector) error {
	log = log.With(logging.Int("replica", replica))
	rng := rand.New(rand.NewSource(runSeed + int64(replica)))

	sched := sim.NewScheduler(sim.WithLogger(log), sim.WithMetrics(collector))

	// Channel fabric: A1 and E2 deliver immediately, the fronthaul models
	// transport latency.
	a1 := channel.NewRouter("a1", sched,
		channel.WithRouterLogger(log),
		channel.WithDeliveryRecorder(collector))
	e2 := channel.NewRouter("e2", sched,
		channel.WithRouterLogger(log),
		channel.WithDeliveryRecorder(collector))
	fronthaul := channel.NewRouter("fronthaul", sched,
		channel.WithRouterLogger(log),
		channel.WithDeliveryRecorder(collector),
		channel.WithDelay(channel.NewNormalDelay(
			100*time.Millisecond, 20*time.Millisecond, 5*time.Millisecond, time.Millisecond, rng)))
	indications := channel.NewBroker("e2-indications", sched,
		channel.WithBrokerLogger(log),
		channel.WithBrokerDeliveryRecorder(collector))

	// Control hierarchy.
	nearRT := ric.NewNearRTRIC("near-rt-1", sched, e2, indications,
		ric.WithNearRTLogger(log), ric.WithPolicyMetrics(collector))
	nonRT := ric.NewNonRTRIC("non-rt-1", sched, a1, ric.WithNonRTLogger(log))
	nonRT.AddManagedRIC(nearRT)

	// Elements.
	du := ran.NewODU("du-1", ran.DefaultDUConfig(1), e2, nearRT.ID(), log)
	ru := ran.NewORU("ru-1", ran.DefaultRUConfig(), fronthaul, log)
	cucp := ran.NewOCUCP("cu-cp-1", log)
	cuup := ran.NewOCUUP("cu-up-1", log)
	for _, el := range []ran.Element{du, ru, cucp, cuup} {
		if err := nearRT.RegisterElement(el); err != nil {
			return fmt.Errorf("register %s: %w", el.ID(), err)
		}
	}
	fronthaul.Register(ru.ID(), ru)
	fronthaul.Register(du.ID(), du)

	xapp := ric.NewHandoverXApp("xapp-handover", e2, nearRT.ID(), log)
	nearRT.AddXApp(xapp)

	// Optional O1 configuration.
	if configDir != "" {
		store := config.NewStore(configDir, log)
		if err := store.Load(); err != nil {
			return fmt.Errorf("load configs: %w", err)
		}
		store.ApplyAll(map[string]config.Applier{
			du.ID(): du,
			ru.ID(): ru,
		})
		if err := store.Watch(ctx); err != nil {
			return fmt.Errorf("watch configs: %w", err)
		}
	}

	// Mobility.
	engine := mobility.NewEngine(sched, runTick, log)
	ues := make([]*ran.UE, 0, runUEs)
	for i := 0; i < runUEs; i++ {
		m := mobility.NewRandomWaypoint(1.5, 100, 100, 5*time.Second, 2*time.Second, rng)
		ue := ran.NewUE(fmt.Sprintf("ue-%d", i+1),
			mobility.Position{X: rng.Float64() * 100, Y: rng.Float64() * 100}, m)
		if err := engine.Track(ue); err != nil {
			return fmt.Errorf("track %s: %w", ue.ID(), err)
		}
		du.AttachUE()
		ue.SetServingCell(du.ID())
		ues = append(ues, ue)
	}

	// Periodic activity: uplink slots, load reports, a handover report to
	// exercise the xApp loop, and the policy enforcement sweep.
	if _, err := sched.Every(time.Second, func(time.Duration) {
		if err := ru.SendUplink(du.ID()); err != nil {
			log.Error(ctx, "uplink send failed", logging.Err(err))
		}
		if err := du.ReportLoad(); err != nil {
			log.Error(ctx, "load report failed", logging.Err(err))
		}
	}); err != nil {
		return err
	}
	if _, err := sched.Every(2*time.Second, func(time.Duration) {
		nearRT.EnforcePolicies()
	}); err != nil {
		return err
	}
	if _, err := sched.Schedule(3*time.Second, func() {
		report := model.NewMessage(model.MsgHandoverReport, map[string]any{
			"ue_id":       ues[0].ID(),
			"source_cell": du.ID(),
		})
		if err := e2.Send(report, du.ID(), nearRT.ID()); err != nil {
			log.Error(ctx, "handover report failed", logging.Err(err))
		}
	}); err != nil {
		return err
	}

	// Author and push the steering policy before the clock starts.
	rapp := ric.NewLoadBalancingRApp("rapp-loadbalance", nonRT, log)
	if _, err := rapp.SteerTraffic(nearRT.ID(), ran.LoadReportThreshold); err != nil {
		return fmt.Errorf("distribute policy: %w", err)
	}

	log.Info(ctx, "simulation starting",
		logging.Duration("until", runUntil),
		logging.Int("ues", runUEs))
	if err := sched.Run(runUntil); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	log.Info(ctx, "simulation complete",
		logging.Duration("clock", sched.Now()),
		logging.Int("uplinks_received", du.ReceivedUplinks()),
		logging.Int("indications_observed", xapp.Observed()))

	if csv != nil {
		csv.Collect(analytics.Record{
			"replica":           replica,
			"clock_seconds":     sched.Now().Seconds(),
			"uplinks_sent":      ru.SentUplinks(),
			"uplinks_received":  du.ReceivedUplinks(),
			"indications":       xapp.Observed(),
			"policies_stored":   nearRT.PolicyCount(),
			"du_policy_applies": du.PolicyApplications(),
			"tracked_ues":       engine.Tracked(),
		})
	}
	return nil
}
