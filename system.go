package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

const (
	Version = "v1"

	PhaseBefore = "before indexes"
	PhaseAfter  = "after indexes"
)

type System struct {
	config    Config
	runner    Runner
	dataset   Dataset
	benchmark Benchmark
	storage   *Storage
	out       io.Writer
	id        string
	now       func() time.Time
}

// Outcome is everything one benchmark run produced.
type Outcome struct {
	Run     string
	Started time.Time
	Before  Phase
	After   Phase
	Indexes []IndexOutcome
	Report  Report
}

type SysInfo struct {
	Arch     string
	Hostname string
	Platform string
	CPUCount int
	CPUFreq  float64
	RAM      float64
}

func HostStat() SysInfo {
	info := SysInfo{Arch: runtime.GOARCH}
	if hostStat, err := host.Info(); err == nil {
		info.Hostname, info.Platform = hostStat.Hostname, hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		totalFreq := 0.0
		for _, cpu := range cpuStat {
			totalFreq += cpu.Mhz
		}
		info.CPUCount = len(cpuStat)
		info.CPUFreq = totalFreq / float64(len(cpuStat))
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = float64(vmStat.Total) / 1024 / 1024 / 1024
	}
	return info
}

func NewSystem(config Config, out io.Writer) (*System, error) {
	runner, err := RunnerFor(config.Engine)
	if err != nil {
		return nil, err
	}
	return &System{
		config:  config,
		runner:  runner,
		dataset: DatasetFor(config),
		benchmark: Benchmark{
			Warmup:       config.Warmup,
			Attempts:     config.Attempts,
			ClearCaches:  config.ClearCaches,
			QueryTimeout: config.QueryTimeout,
		},
		storage: NewStorage(config.Results),
		out:     out,
		id:      uuid.NewString(),
		now:     time.Now,
	}, nil
}

// CheckConnection connects, prints the server version and the row counts.
func (s *System) CheckConnection(ctx context.Context) error {
	instance, err := s.runner.Init(ctx, s.config)
	if err != nil {
		return fmt.Errorf("failed to initialize runner %v: %w", s.runner.Name(), err)
	}
	defer instance.Close()

	result, err := Check(ctx, instance)
	if err != nil {
		return err
	}
	result.Render(s.out)
	return nil
}

// Run provisions the data, times the suite before and after the index batch
// and prints the comparison. Only setup failures are returned; query and index
// failures end up in the outcome.
func (s *System) Run(ctx context.Context) (Outcome, error) {
	outcome := Outcome{Run: s.id, Started: s.now()}
	info := HostStat()
	Logger.Infof("start benchmark %v (%v), host stat: %+v", s.id, Version, info)

	instance, err := s.runner.Init(ctx, s.config)
	if err != nil {
		return outcome, fmt.Errorf("failed to initialize runner %v: %w", s.runner.Name(), err)
	}
	defer instance.Close()

	datasetName := "existing"
	if s.dataset != nil {
		datasetName = s.dataset.Name()
		Logger.Infof("started dataset %v initialization on %v", datasetName, instance.Name())
		if err := s.dataset.Load(ctx, instance); err != nil {
			return outcome, fmt.Errorf("failed to initialize dataset %v: %w", datasetName, err)
		}
		Logger.Infof("finished dataset %v initialization on %v", datasetName, instance.Name())
	}

	suite := instance.Dialect().Suite()
	explain := s.explainer(ctx, instance)

	outcome.Before = s.benchmark.RunPhase(ctx, PhaseBefore, instance, suite, explain)

	fmt.Fprintln(s.out, "Creating indexes")
	outcome.Indexes = CreateIndexes(ctx, instance, instance.Dialect().IndexStatements())
	RenderIndexOutcomes(s.out, outcome.Indexes)
	fmt.Fprintln(s.out)
	Logger.Infof("indexes: %v", summarizeIndexes(outcome.Indexes))

	outcome.After = s.benchmark.RunPhase(ctx, PhaseAfter, instance, suite, explain)

	outcome.Report = Compare(outcome.Before, outcome.After)
	outcome.Report.Render(s.out)
	if skipped := outcome.Report.Skipped(); len(skipped) > 0 {
		Logger.Warnf("%v of %v queries were not compared", len(skipped), len(outcome.Report.Comparisons))
	}

	if s.storage.Enabled() {
		run := RunInfo{Id: s.id, Engine: instance.Name(), Dataset: datasetName, Started: outcome.Started}
		if err := s.store(ctx, run, info, outcome); err != nil {
			return outcome, fmt.Errorf("failed to store results of %v: %w", s.id, err)
		}
	}
	return outcome, ctx.Err()
}

func (s *System) explainer(ctx context.Context, instance Instance) func(Query) {
	if !s.config.Explain {
		return nil
	}
	return func(query Query) {
		if err := ExplainQuery(ctx, instance, query, s.out); err != nil {
			Logger.Warnf("unable to explain query: %v", err)
		}
	}
}

func (s *System) store(ctx context.Context, run RunInfo, info SysInfo, outcome Outcome) error {
	db, err := s.storage.ConnectDb(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := s.storage.InitResultsDb(ctx, db); err != nil {
		return err
	}
	err = s.storage.AddRun(ctx, db, run, map[string]any{
		"version":  Version,
		"engine":   run.Engine,
		"dataset":  run.Dataset,
		"attempts": s.benchmark.attempts(),
		"warmup":   s.benchmark.Warmup,
		"arch":     info.Arch,
		"hostname": info.Hostname,
		"platform": info.Platform,
		"ram":      info.RAM,
		"cpu":      info.CPUCount,
		"freq":     info.CPUFreq,
	})
	if err != nil {
		return fmt.Errorf("failed to add run: %w", err)
	}
	if err := s.storage.UpdateBenchmarkDb(ctx, db, run.Id, []Phase{outcome.Before, outcome.After}, outcome.Indexes); err != nil {
		return err
	}
	if err := s.storage.FinishRun(ctx, db, run.Id, len(outcome.Report.Skipped())); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	Logger.Infof("stored results of run %v", run.Id)
	return nil
}
