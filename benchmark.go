package main

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// FailedDuration marks a measurement whose query did not complete.
const FailedDuration = -1.0

type Benchmark struct {
	Warmup       int
	Attempts     int
	ClearCaches  bool
	QueryTimeout time.Duration
	// Exec runs the cache dropping commands; nil means local processes.
	Exec Executor
}

type Measurement struct {
	Name    string
	Kind    QueryKind
	Seconds float64
	Rows    int
	Err     error
}

func (m Measurement) Failed() bool { return m.Seconds < 0 }

type Phase struct {
	Name         string
	Measurements []Measurement
}

func (p Phase) Lookup(name string) (Measurement, bool) {
	for _, measurement := range p.Measurements {
		if measurement.Name == name {
			return measurement, true
		}
	}
	return Measurement{}, false
}

// cacheCommands lists the commands dropping the os page cache on goos.
func cacheCommands(goos string) ([][]string, error) {
	switch goos {
	case "linux":
		return [][]string{{"sync"}, {"sh", "-c", "echo 3 | sudo tee /proc/sys/vm/drop_caches"}}, nil
	case "darwin":
		return [][]string{{"sync"}, {"purge"}}, nil
	}
	return nil, fmt.Errorf("unable to clear caches for platform '%v'", goos)
}

func clearCaches(ctx context.Context, exec Executor) error {
	commands, err := cacheCommands(runtime.GOOS)
	if err != nil {
		return err
	}
	for _, args := range commands {
		if _, err := exec(ctx, "", nil, args); err != nil {
			return fmt.Errorf("%v: %w", args[0], err)
		}
	}
	return nil
}

func (b *Benchmark) clearCachesIfNeeded(ctx context.Context) {
	if !b.ClearCaches {
		return
	}
	exec := b.Exec
	if exec == nil {
		exec = runCmd
	}
	Logger.Debugf("clear caches")
	if err := clearCaches(ctx, exec); err != nil {
		Logger.Warnf("failed to clear fs caches: %v", err)
	}
}

func (b *Benchmark) attempts() int {
	return max(b.Attempts, 1)
}

func (b *Benchmark) runQuery(ctx context.Context, instance Instance, query string) (Rows, error) {
	if b.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.QueryTimeout)
		defer cancel()
	}
	return instance.Query(ctx, query)
}

// TimeQuery measures the wall-clock time of query. Failures are never returned:
// the measurement carries FailedDuration and the error instead.
func (b *Benchmark) TimeQuery(ctx context.Context, instance Instance, query Query) Measurement {
	measurement := Measurement{Name: query.Name, Kind: query.Kind}

	for i := 0; i < b.Warmup; i++ {
		Logger.Debugf("running warmup #%v/%v for %v", i+1, b.Warmup, query.Name)
		if _, err := b.runQuery(ctx, instance, query.Query); err != nil {
			measurement.Seconds, measurement.Err = FailedDuration, fmt.Errorf("warmup #%v failed: %w", i, err)
			Logger.Errorf("query %q failed: %v", query.Name, measurement.Err)
			return measurement
		}
	}

	total := 0.0
	for i := 0; i < b.attempts(); i++ {
		b.clearCachesIfNeeded(ctx)

		start := time.Now()
		rows, err := b.runQuery(ctx, instance, query.Query)
		elapsed := time.Since(start)

		if err != nil {
			measurement.Seconds, measurement.Err = FailedDuration, fmt.Errorf("run #%v failed: %w", i, err)
			Logger.Errorf("query %q failed: %v", query.Name, measurement.Err)
			return measurement
		}
		total += elapsed.Seconds()
		measurement.Rows = rows.Len()
	}
	measurement.Seconds = total / float64(b.attempts())

	Logger.Infof("%v: %.4fs, %v rows", query.Name, measurement.Seconds, measurement.Rows)
	return measurement
}

// RunPhase times every query in order; explain, when set, is called before
// each timing to print the plan.
func (b *Benchmark) RunPhase(
	ctx context.Context,
	name string,
	instance Instance,
	queries []Query,
	explain func(Query),
) Phase {
	Logger.Infof("running phase %v with %v queries on %v", name, len(queries), instance.Name())
	phase := Phase{Name: name, Measurements: make([]Measurement, 0, len(queries))}
	for _, query := range queries {
		if ctx.Err() != nil {
			phase.Measurements = append(phase.Measurements, Measurement{
				Name: query.Name, Kind: query.Kind, Seconds: FailedDuration, Err: ctx.Err(),
			})
			continue
		}
		if explain != nil {
			explain(query)
		}
		phase.Measurements = append(phase.Measurements, b.TimeQuery(ctx, instance, query))
	}
	return phase
}
