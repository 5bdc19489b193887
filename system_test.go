package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemRunSqlite(t *testing.T) {
	useTestLogger(t)
	config := sqliteConfig(t)
	config.Explain = true
	config.Attempts = 2
	config.Results.Url = filepath.Join(t.TempDir(), "results.db")

	var out bytes.Buffer
	system, err := NewSystem(config, &out)
	require.Nil(t, err)

	outcome, err := system.Run(context.Background())
	require.Nil(t, err)
	require.Len(t, outcome.Before.Measurements, 11)
	require.Len(t, outcome.After.Measurements, 11)
	require.Len(t, outcome.Report.Comparisons, 11)
	require.Empty(t, outcome.Report.Skipped())
	require.Equal(t, 6, countIndexStatus(outcome.Indexes, IndexCreated))

	text := out.String()
	require.Contains(t, text, "EXPLAIN for: Price filter > 100")
	require.Contains(t, text, "Index on order_items.price")
	require.Contains(t, text, "scalar queries")
	require.Contains(t, text, "text queries")

	db, err := system.storage.ConnectDb(context.Background())
	require.Nil(t, err)
	defer db.Close()
	measurements, err := system.storage.Measurements(context.Background(), db, outcome.Run)
	require.Nil(t, err)
	require.Len(t, measurements, 22)
	parameters, err := system.storage.Parameters(context.Background(), db, outcome.Run)
	require.Nil(t, err)
	require.Equal(t, "sqlite3", parameters["engine"])
	require.Equal(t, "synthetic", parameters["dataset"])
}

func TestSystemRunStartTime(t *testing.T) {
	useTestLogger(t)
	config := sqliteConfig(t)
	config.Results.Url = filepath.Join(t.TempDir(), "results.db")

	var out bytes.Buffer
	system, err := NewSystem(config, &out)
	require.Nil(t, err)
	started := time.Date(2018, 3, 4, 5, 6, 7, 0, time.UTC)
	calls, printed := 0, 0
	system.now = func() time.Time {
		calls++
		printed = out.Len()
		return started
	}

	outcome, err := system.Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, 1, calls)
	require.Zero(t, printed, "start time is taken before any phase runs")
	require.Equal(t, started, outcome.Started)

	db, err := system.storage.ConnectDb(context.Background())
	require.Nil(t, err)
	defer db.Close()
	var stored string
	require.Nil(t, db.QueryRowContext(context.Background(), "SELECT started FROM runs WHERE run = ?", outcome.Run).Scan(&stored))
	require.Equal(t, "2018-03-04 05:06:07", stored)
}

func TestSystemRunExistingData(t *testing.T) {
	useTestLogger(t)
	config := sqliteConfig(t)
	first, err := NewSystem(config, &bytes.Buffer{})
	require.Nil(t, err)
	_, err = first.Run(context.Background())
	require.Nil(t, err)

	config.Provision = ProvisionNone
	second, err := NewSystem(config, &bytes.Buffer{})
	require.Nil(t, err)
	outcome, err := second.Run(context.Background())
	require.Nil(t, err)
	require.Equal(t, len(outcome.Indexes), countIndexStatus(outcome.Indexes, IndexExists))
	require.Empty(t, outcome.Report.Skipped())
}

func TestSystemRunEmptyDatabase(t *testing.T) {
	useTestLogger(t)
	config := sqliteConfig(t)
	config.Provision = ProvisionNone
	system, err := NewSystem(config, &bytes.Buffer{})
	require.Nil(t, err)

	outcome, err := system.Run(context.Background())
	require.Nil(t, err)
	require.Len(t, outcome.Report.Skipped(), 11)
	require.Equal(t, len(outcome.Indexes), countIndexStatus(outcome.Indexes, IndexFailed))
}

func TestSystemRunUnreachable(t *testing.T) {
	useTestLogger(t)
	config := sqliteConfig(t)
	config.DbPath = filepath.Join(t.TempDir(), "missing", "dir", "ecommerce.db")
	system, err := NewSystem(config, &bytes.Buffer{})
	require.Nil(t, err)

	_, err = system.Run(context.Background())
	require.ErrorContains(t, err, "failed to initialize runner")
}

func TestCheckConnection(t *testing.T) {
	instance := loadSynthetic(t)
	result, err := Check(context.Background(), instance)
	require.Nil(t, err)
	require.NotEmpty(t, result.Version)
	require.Len(t, result.Tables, len(Tables))
	for _, count := range result.Tables {
		require.Nil(t, count.Err, count.Table)
	}
	require.Equal(t, "1000", result.Tables[4].Rows)

	var out bytes.Buffer
	result.Render(&out)
	require.Contains(t, out.String(), "order_reviews")
	require.Contains(t, out.String(), "800")
}

func TestCheckConnectionEmpty(t *testing.T) {
	useTestLogger(t)
	var out bytes.Buffer
	system, err := NewSystem(sqliteConfig(t), &out)
	require.Nil(t, err)
	require.Nil(t, system.CheckConnection(context.Background()))
	require.Contains(t, out.String(), "missing")
}
