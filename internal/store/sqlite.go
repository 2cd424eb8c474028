package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"DipSentinel/internal/model"
)

// SQLiteStore persists bars and indicator rows to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the pipeline writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT    NOT NULL,
			date   TEXT    NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume INTEGER NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_date ON bars(date)`,

		`CREATE TABLE IF NOT EXISTS indicators (
			symbol  TEXT    NOT NULL,
			date    TEXT    NOT NULL,
			win     INTEGER NOT NULL,
			btd_raw REAL    NOT NULL,
			str_raw REAL    NOT NULL,
			btd     REAL    NOT NULL,
			str     REAL    NOT NULL,
			PRIMARY KEY (symbol, date, win)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_indicators_date ON indicators(date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertBars(bars []model.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rowErrs []error
	for _, b := range bars {
		_, err := s.db.Exec(`INSERT OR REPLACE INTO bars
			(symbol, date, open, high, low, close, volume)
			VALUES (?,?,?,?,?,?,?)`,
			b.Symbol, model.DateString(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("upsert bar %s %s: %w", b.Symbol, model.DateString(b.Date), err))
		}
	}
	return errors.Join(rowErrs...)
}

func (s *SQLiteStore) GetSeries(symbol string, asOf time.Time, limit int) ([]model.Bar, error) {
	rows, err := s.db.Query(`SELECT symbol, date, open, high, low, close, volume
		FROM bars WHERE symbol = ? AND date <= ?
		ORDER BY date DESC LIMIT ?`,
		symbol, model.DateString(asOf), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query series %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var date string
		if err := rows.Scan(&b.Symbol, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar %s: %w", symbol, err)
		}
		b.Date, err = time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q for %s: %w", date, symbol, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series %s: %w", symbol, err)
	}

	// Query returned newest-first; callers want ascending.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (s *SQLiteStore) HasBar(symbol string, date time.Time) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM bars WHERE symbol = ? AND date = ? LIMIT 1`,
		symbol, model.DateString(date)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check bar %s %s: %w", symbol, model.DateString(date), err)
	}
	return true, nil
}

func (s *SQLiteStore) UpsertIndicators(sets []model.IndicatorSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rowErrs []error
	for _, is := range sets {
		_, err := s.db.Exec(`INSERT OR REPLACE INTO indicators
			(symbol, date, win, btd_raw, str_raw, btd, str)
			VALUES (?,?,?,?,?,?,?)`,
			is.Symbol, model.DateString(is.Date), is.Window, is.RawBTD, is.RawSTR, is.BTD, is.STR,
		)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("upsert indicator %s %s w=%d: %w",
				is.Symbol, model.DateString(is.Date), is.Window, err))
		}
	}
	return errors.Join(rowErrs...)
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
