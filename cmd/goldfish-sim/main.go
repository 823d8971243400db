// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command goldfish-sim drives a synchronous, round-by-round run of the
// Goldfish sleepy consensus simulator: it wires validators, their inboxes,
// an optional crash-fault adversary and a participation schedule together,
// steps every round, and reports ledger/communication stats as CSV.
//
// Flag parsing and progress printing intentionally stay minimal — only the
// shape of a working driver matters here, not a full CLI surface.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/goldfishsim/goldfish/adversary"
	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/config"
	"github.com/goldfishsim/goldfish/crypto/sig"
	"github.com/goldfishsim/goldfish/crypto/vrf"
	"github.com/goldfishsim/goldfish/inbox"
	"github.com/goldfishsim/goldfish/lottery"
	"github.com/goldfishsim/goldfish/schedule"
	"github.com/goldfishsim/goldfish/sleepy"
	"github.com/goldfishsim/goldfish/utils/sampler"
	"github.com/goldfishsim/goldfish/validator"
)

// scenario is the YAML-loadable overlay on top of a config preset: any zero
// field leaves the preset's value untouched.
type scenario struct {
	Preset   string  `yaml:"preset"`
	Schedule string  `yaml:"schedule"`
	N        int     `yaml:"n"`
	F        int     `yaml:"f"`
	THorizon int     `yaml:"t_horizon"`
	Seed     int64   `yaml:"seed"`
	FracIID  float64 `yaml:"fraction_iid"`
}

func main() {
	configPath := flag.String("config", "", "YAML scenario file (overrides -preset/-schedule)")
	preset := flag.String("preset", "default", "config preset: default, local, stress")
	scheduleName := flag.String("schedule", "full", "participation schedule: full, alternating, iid, momosenren")
	seed := flag.Int64("seed", 1, "deterministic seed for schedule randomness")
	csvPath := flag.String("out", "", "CSV output path (stdout if empty)")
	dotfilePath := flag.String("dotfile", "", "if set, dump validator 0's final BV-tree as a DOT graph here")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus /metrics on this address for the run's duration")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	sc := scenario{Preset: *preset, Schedule: *scheduleName, Seed: *seed, FracIID: 0.6}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			sugar.Fatalw("reading scenario file", "error", err)
		}
		if err := yaml.Unmarshal(data, &sc); err != nil {
			sugar.Fatalw("parsing scenario file", "error", err)
		}
	}

	params := presetFor(sc.Preset)
	if sc.N > 0 {
		params.N = sc.N
	}
	if sc.F > 0 {
		params.F = sc.F
	}
	if sc.THorizon > 0 {
		params.THorizon = sc.THorizon
	}

	var metrics *runMetrics
	if *metricsAddr != "" {
		metrics = newRunMetrics()
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			sugar.Infow("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				sugar.Warnw("metrics server stopped", "error", err)
			}
		}()
	}

	rows, dot, err := run(params, sc, sugar, metrics)
	if err != nil {
		sugar.Fatalw("simulation failed", "error", err)
	}

	out := os.Stdout
	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			sugar.Fatalw("creating csv output", "error", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeCSV(out, rows); err != nil {
		sugar.Fatalw("writing csv", "error", err)
	}

	if *dotfilePath != "" {
		if err := os.WriteFile(*dotfilePath, []byte(dot), 0o644); err != nil {
			sugar.Fatalw("writing dotfile", "error", err)
		}
	}
}

func presetFor(name string) config.Parameters {
	switch name {
	case "local":
		return config.Local()
	case "stress":
		return config.Stress()
	default:
		return config.Default()
	}
}

// statRow is one validator's ledger/communication snapshot at one round.
type statRow struct {
	Round          int64
	ValidatorID    block.Id
	LedgerBest     int
	LedgerFast     int
	LedgerSlow     int
	MessagesInCount int
	MessagesInBytes int
}

func run(params config.Parameters, sc scenario, sugar *zap.SugaredLogger, metrics *runMetrics) ([]statRow, string, error) {
	sigs := sig.WithVerification(sig.NewMockScheme(), params.VerifySignatures)
	vrfs := vrf.NewSigDerivedScheme(sigs)

	lotteries := block.Lotteries{
		Block: lottery.New("block", params.ProbabilityLotteryBlock, vrfs),
		Vote:  lottery.New("vote", params.ProbabilityLotteryVote, vrfs),
	}

	pki := block.Pki{}
	type keypair struct {
		sk sig.PrivateKey
		pk sig.PublicKey
	}
	keys := make([]keypair, params.N)
	for i := 0; i < params.N; i++ {
		sk, pk, err := sigs.Gen()
		if err != nil {
			return nil, "", fmt.Errorf("generating keypair %d: %w", i, err)
		}
		keys[i] = keypair{sk: sk, pk: pk}
		pki[block.Id(i)] = block.ValidatorKeys{Sig: pk, Vrf: pk}
	}

	rounds := int(params.RoundHorizon())
	rng := sampler.NewDeterministicUniform(sc.Seed)
	schedules := scheduleFor(sc.Schedule, params.N, rounds, sc.FracIID, rng)

	inboxes := make([]*inbox.SimulationInbox, params.N)
	for i := range inboxes {
		inboxes[i] = inbox.New()
	}

	adv := adversary.NewCrashFaults()
	steppers := make([]validator.HonestValidator, params.N)
	for i := 0; i < params.N; i++ {
		v := validator.New(block.Id(i), keys[i].sk, keys[i].sk, pki, sigs, params.ConfirmSlowKappa, params.ConfirmFastEps)
		wrapped := sleepy.New(v, schedules[i])
		steppers[i] = wrapped
		if i < params.F {
			adv.Corrupt(wrapped)
		}
	}
	corrupted := make(map[int]bool, params.F)
	for i := 0; i < params.F; i++ {
		corrupted[i] = true
	}

	var rows []statRow
	for r := int64(0); r < int64(rounds); r++ {
		g, _ := errgroup.WithContext(context.Background())
		for i := range inboxes {
			ib := inboxes[i]
			g.Go(func() error {
				ib.DeliverMsgsInflight(r)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, "", err
		}

		g, _ = errgroup.WithContext(context.Background())
		for i := 0; i < params.N; i++ {
			i := i
			g.Go(func() error {
				if corrupted[i] {
					adv.Step(lotteries, r, inboxes, i)
				} else {
					steppers[i].Step(lotteries, r, inboxes, i)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, "", err
		}

		for i := 0; i < params.N; i++ {
			ledgerRow, ok := ledgerStatsOf(steppers[i], r)
			if !ok {
				continue
			}
			stats := inboxes[i].Stats()[r]
			if metrics != nil {
				metrics.observe(stats)
			}
			rows = append(rows, statRow{
				Round:           r,
				ValidatorID:     block.Id(i),
				LedgerBest:      ledgerRow.LedgerBest.Length,
				LedgerFast:      ledgerRow.LedgerFast.Length,
				LedgerSlow:      ledgerRow.LedgerSlow.Length,
				MessagesInCount: stats.AllCount,
				MessagesInBytes: stats.AllSize,
			})
		}
	}

	sugar.Infow("simulation complete", "rounds", rounds, "validators", params.N, "rows", len(rows))

	var dot string
	if sv, ok := steppers[0].(*sleepy.Validator); ok {
		dot = sv.DumpDot()
	}
	return rows, dot, nil
}

// statsSource is implemented by *validator.Validator directly, for the
// (unwrapped, always-awake) case.
type statsSource interface {
	Stats() map[int64]validator.ValidatorLedgerStats
}

func ledgerStatsOf(hv validator.HonestValidator, r int64) (validator.ValidatorLedgerStats, bool) {
	if sv, ok := hv.(*sleepy.Validator); ok {
		stats, ok := sv.LedgerStats()[r]
		return stats, ok
	}
	if s, ok := hv.(statsSource); ok {
		stats, ok := s.Stats()[r]
		return stats, ok
	}
	return validator.ValidatorLedgerStats{}, false
}

func scheduleFor(name string, n, rounds int, fracIID float64, rng sampler.Uniform) [][]sleepy.ScheduleStatus {
	switch name {
	case "alternating":
		return schedule.SimpleAlternating(n, rounds, 0.2, 0.5, 2, 0.5, rng)
	case "iid":
		return schedule.IID(n, rounds, fracIID, 0.5, rng)
	case "momosenren":
		return schedule.MomoseRen(n, rounds, 0.2, 0.2, 1.0, rng)
	default:
		return schedule.FullParticipation(n, rounds)
	}
}

func writeCSV(w *os.File, rows []statRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"round", "validator_id", "ledger_best", "ledger_fast", "ledger_slow", "messages_in_count", "messages_in_bytes"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.Round, 10),
			strconv.FormatInt(int64(row.ValidatorID), 10),
			strconv.Itoa(row.LedgerBest),
			strconv.Itoa(row.LedgerFast),
			strconv.Itoa(row.LedgerSlow),
			strconv.Itoa(row.MessagesInCount),
			strconv.Itoa(row.MessagesInBytes),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// runMetrics exposes optional Prometheus counters for a long-running
// simulation, scraped via -metrics-addr.
type runMetrics struct {
	messagesDelivered prometheus.Counter
	bytesDelivered    prometheus.Counter
}

func newRunMetrics() *runMetrics {
	return &runMetrics{
		messagesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "goldfish_sim_messages_delivered_total",
			Help: "Total messages delivered to any validator inbox.",
		}),
		bytesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "goldfish_sim_bytes_delivered_total",
			Help: "Total message bytes delivered to any validator inbox.",
		}),
	}
}

func (m *runMetrics) observe(s inbox.CommunicationStats) {
	m.messagesDelivered.Add(float64(s.AllCount))
	m.bytesDelivered.Add(float64(s.AllSize))
}
