package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/PaddyFinan/Petrobras-project/internal/finance"
)

const dateLayout = "2006-01-02"

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// Store writes a snapshot of one study run. It never reads it back.
type Store struct{ db DB }

func OpenSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+path+"?_fk=1")
}

func InitSchema(ctx context.Context, db DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs(
			id INTEGER PRIMARY KEY AUTOINCREMENT, created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prices(
			run_id INTEGER REFERENCES runs(id), date TEXT, ticker TEXT, price REAL
		)`,
		`CREATE TABLE IF NOT EXISTS returns(
			run_id INTEGER REFERENCES runs(id), date TEXT, series TEXT, value REAL
		)`,
		`CREATE TABLE IF NOT EXISTS correlations(
			run_id INTEGER REFERENCES runs(id), a TEXT, b TEXT, value REAL, obs INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS rolling_correlations(
			run_id INTEGER REFERENCES runs(id), date TEXT, pair TEXT, value REAL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db} }

// SaveRun stores prices, returns, the correlation matrix and the rolling
// series in one transaction and returns the new run id. Missing values are
// stored as NULL.
func (s *Store) SaveRun(ctx context.Context, at time.Time, prices, returns *finance.Frame, corr *finance.CorrMatrix, rollingDates []time.Time, rolling []finance.RollingSeries) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs(created_at) VALUES(?)`, at.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertFrame(ctx, tx, `INSERT INTO prices(run_id,date,ticker,price) VALUES(?,?,?,?)`, runID, prices); err != nil {
		return 0, fmt.Errorf("prices: %w", err)
	}
	if err := insertFrame(ctx, tx, `INSERT INTO returns(run_id,date,series,value) VALUES(?,?,?,?)`, runID, returns); err != nil {
		return 0, fmt.Errorf("returns: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO correlations(run_id,a,b,value,obs) VALUES(?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, a := range corr.Columns {
		for j, b := range corr.Columns {
			if _, err := stmt.ExecContext(ctx, runID, a, b, nullable(corr.Values[i][j]), corr.Obs[i][j]); err != nil {
				return 0, fmt.Errorf("correlations: %w", err)
			}
		}
	}

	rstmt, err := tx.PrepareContext(ctx, `INSERT INTO rolling_correlations(run_id,date,pair,value) VALUES(?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer rstmt.Close()
	for _, series := range rolling {
		for i, v := range series.Values {
			if i >= len(rollingDates) {
				break
			}
			if _, err := rstmt.ExecContext(ctx, runID, rollingDates[i].Format(dateLayout), series.Name, nullable(v)); err != nil {
				return 0, fmt.Errorf("rolling: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func insertFrame(ctx context.Context, tx *sql.Tx, query string, runID int64, f *finance.Frame) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for c, name := range f.Columns {
		for r, d := range f.Dates {
			if _, err := stmt.ExecContext(ctx, runID, d.Format(dateLayout), name, nullable(f.Values[c][r])); err != nil {
				return err
			}
		}
	}
	return nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
