package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Storage persists benchmark runs into a libsql database. Plain file URLs go
// through the embedded sqlite driver.
type Storage struct {
	StorageConfig
	client *http.Client
}

type RunInfo struct {
	Id      string
	Engine  string
	Dataset string
	Started time.Time
}

type StoredMeasurement struct {
	Phase   string
	Name    string
	Kind    string
	Seconds float64
	Rows    int
	Error   string
}

func NewStorage(config StorageConfig) *Storage {
	return &Storage{StorageConfig: config, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *Storage) Enabled() bool {
	return s.Url != "" || (s.OrgName != "" && s.Database != "")
}

// CreateDatabase asks the platform API for a new database in the configured
// group. An existing database is not an error.
func (s *Storage) CreateDatabase(ctx context.Context, name string) error {
	url := fmt.Sprintf("%v/v1/organizations/%v/databases", strings.TrimSuffix(s.ApiUrl, "/"), s.OrgName)
	payload, err := json.Marshal(map[string]string{"name": name, "group": s.GroupName})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+s.ApiToken)
	req.Header.Add("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		Logger.Infof("created database %v", name)
		return nil
	case http.StatusConflict:
		Logger.Infof("database %v already exists", name)
		return nil
	}
	return fmt.Errorf("unexpected status code %v: %v", resp.StatusCode, string(body))
}

func (s *Storage) DbUrl() string {
	if s.Url != "" {
		return s.Url
	}
	return fmt.Sprintf("libsql://%v-%v.turso.io?authToken=%v", s.Database, s.OrgName, s.AuthToken)
}

func storageDriver(url string) string {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(url, scheme) {
			return "libsql"
		}
	}
	return "sqlite3"
}

// ConnectDb opens the results database, creating it through the API first
// when an API token is configured.
func (s *Storage) ConnectDb(ctx context.Context) (*sql.DB, error) {
	if s.Url == "" && s.ApiToken != "" {
		if err := s.CreateDatabase(ctx, s.Database); err != nil {
			return nil, fmt.Errorf("unable to create results db %v: %w", s.Database, err)
		}
	}
	url := s.DbUrl()
	db, err := sql.Open(storageDriver(url), url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to reach results db: %w", err)
	}
	return db, nil
}

func (s *Storage) InitResultsDb(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run TEXT PRIMARY KEY,
			engine TEXT,
			dataset TEXT,
			started TEXT,
			finished BOOL,
			skipped INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS parameters (
			run TEXT,
			name TEXT,
			value TEXT,
			PRIMARY KEY (run, name)
		)`,
		`CREATE TABLE IF NOT EXISTS measurements (
			run TEXT,
			phase TEXT,
			name TEXT,
			kind TEXT,
			seconds REAL,
			row_count INTEGER,
			error TEXT,
			PRIMARY KEY (run, phase, name)
		)`,
		`CREATE TABLE IF NOT EXISTS indexes (
			run TEXT,
			name TEXT,
			status TEXT,
			error TEXT,
			PRIMARY KEY (run, name)
		)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("init results db: %w, statement=%v", err, firstLine(statement))
		}
	}
	Logger.Infof("initialized database for benchmark results")
	return nil
}

func (s *Storage) AddRun(ctx context.Context, db *sql.DB, run RunInfo, meta map[string]any) error {
	_, err := db.ExecContext(
		ctx,
		"INSERT INTO runs VALUES (?, ?, ?, ?, 0, 0)",
		run.Id, run.Engine, run.Dataset, run.Started.Format(time.DateTime),
	)
	if err != nil {
		return err
	}
	if len(meta) == 0 {
		return nil
	}
	parameters := make([]any, 0, 3*len(meta))
	for _, key := range slices.Sorted(maps.Keys(meta)) {
		parameters = append(parameters, run.Id, key, fmt.Sprintf("%v", meta[key]))
	}
	placeholders := strings.Join(slices.Repeat([]string{"(?, ?, ?)"}, len(meta)), ", ")
	_, err = db.ExecContext(
		ctx,
		fmt.Sprintf("INSERT INTO parameters VALUES %v ON CONFLICT DO NOTHING", placeholders),
		parameters...,
	)
	return err
}

func (s *Storage) FinishRun(ctx context.Context, db *sql.DB, run string, skipped int) error {
	_, err := db.ExecContext(ctx, "UPDATE runs SET finished = 1, skipped = ? WHERE run = ?", skipped, run)
	return err
}

// UpdateBenchmarkDb writes every measurement and index outcome of the run in
// one transaction.
func (s *Storage) UpdateBenchmarkDb(ctx context.Context, db *sql.DB, run string, phases []Phase, indexes []IndexOutcome) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, phase := range phases {
		for _, m := range phase.Measurements {
			message := ""
			if m.Err != nil {
				message = m.Err.Error()
			}
			_, err = tx.ExecContext(
				ctx,
				"INSERT INTO measurements VALUES (?, ?, ?, ?, ?, ?, ?)",
				run, phase.Name, m.Name, string(m.Kind), m.Seconds, m.Rows, message,
			)
			if err != nil {
				return fmt.Errorf("store measurement %v/%v: %w", phase.Name, m.Name, err)
			}
		}
	}
	for _, outcome := range indexes {
		message := ""
		if outcome.Err != nil {
			message = outcome.Err.Error()
		}
		_, err = tx.ExecContext(
			ctx,
			"INSERT INTO indexes VALUES (?, ?, ?, ?)",
			run, outcome.Index.Description, string(outcome.Status), message,
		)
		if err != nil {
			return fmt.Errorf("store index outcome %v: %w", outcome.Index.Description, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Parameters(ctx context.Context, db *sql.DB, run string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, value FROM parameters WHERE run = ?", run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make(map[string]string, 0)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		results[name] = value
	}
	return results, rows.Err()
}

func (s *Storage) Measurements(ctx context.Context, db *sql.DB, run string) ([]StoredMeasurement, error) {
	rows, err := db.QueryContext(
		ctx,
		"SELECT phase, name, kind, seconds, row_count, error FROM measurements WHERE run = ? ORDER BY phase, name",
		run,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make([]StoredMeasurement, 0)
	for rows.Next() {
		var m StoredMeasurement
		if err := rows.Scan(&m.Phase, &m.Name, &m.Kind, &m.Seconds, &m.Rows, &m.Error); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}
