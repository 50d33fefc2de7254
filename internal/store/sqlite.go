package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/invest-sim/internal/model"
)

// sqliteTimeLayout is fixed-width so that text ordering matches time ordering
// and substr(created_at, 1, 10) yields the UTC day.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	id                   INTEGER PRIMARY KEY,
	name                 TEXT NOT NULL,
	type                 TEXT NOT NULL,
	annual_rate          TEXT NOT NULL,
	liquidity_days       INTEGER NOT NULL DEFAULT 0,
	risk_rating          TEXT NOT NULL DEFAULT '',
	issuer               TEXT NOT NULL DEFAULT '',
	credit_rating        TEXT NOT NULL DEFAULT '',
	transaction_cost_pct TEXT NOT NULL DEFAULT '0',
	avg_daily_volume     INTEGER NOT NULL DEFAULT 0,
	profile              TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS simulations (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	client_id       TEXT NOT NULL,
	product_id      INTEGER NOT NULL,
	product_name    TEXT NOT NULL DEFAULT '',
	term_months     INTEGER NOT NULL,
	amount          TEXT NOT NULL,
	projected_value TEXT NOT NULL,
	rating          INTEGER NOT NULL,
	profile         TEXT NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS endpoint_telemetry (
	day               TEXT NOT NULL,
	endpoint          TEXT NOT NULL,
	requests          INTEGER NOT NULL DEFAULT 0,
	successes         INTEGER NOT NULL DEFAULT 0,
	errors            INTEGER NOT NULL DEFAULT 0,
	total_duration_ms REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (day, endpoint)
);

CREATE INDEX IF NOT EXISTS idx_products_profile ON products(profile);
CREATE INDEX IF NOT EXISTS idx_products_type ON products(type);
CREATE INDEX IF NOT EXISTS idx_simulations_client ON simulations(client_id, created_at);
CREATE INDEX IF NOT EXISTS idx_simulations_created_at ON simulations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const productColumns = `id, name, type, annual_rate, liquidity_days, risk_rating, issuer, credit_rating, transaction_cost_pct, avg_daily_volume, profile`

func (s *SQLiteStore) UpsertProducts(ctx context.Context, products []model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	if err := validateProducts(products); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert products")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			annual_rate = excluded.annual_rate,
			liquidity_days = excluded.liquidity_days,
			risk_rating = excluded.risk_rating,
			issuer = excluded.issuer,
			credit_rating = excluded.credit_rating,
			transaction_cost_pct = excluded.transaction_cost_pct,
			avg_daily_volume = excluded.avg_daily_volume,
			profile = excluded.profile`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert products")
	}
	defer stmt.Close() //nolint:errcheck

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Type, p.AnnualRate.String(), p.LiquidityDays, p.RiskRating,
			p.Issuer, p.CreditRating, p.TransactionCostPct.String(), p.AvgDailyVolume, string(p.Profile),
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert product %d", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert products")
	}
	return len(products), nil
}

func (s *SQLiteStore) PruneProducts(ctx context.Context, keep []int64) (int, error) {
	if err := validateKeep(keep); err != nil {
		return 0, err
	}
	ids, err := json.Marshal(keep)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: encode kept product ids")
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE id NOT IN (SELECT value FROM json_each(?))`, string(ids))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune products")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune products rows affected")
	}
	return int(n), nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (s *SQLiteStore) ListProductsByProfile(ctx context.Context, profile model.RiskProfile) ([]model.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE profile = ? ORDER BY name, id`,
		string(profile),
	)
}

func (s *SQLiteStore) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close() //nolint:errcheck

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) DistinctProductTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT type FROM products ORDER BY type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct product types")
	}
	defer rows.Close() //nolint:errcheck

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product type")
		}
		types = append(types, t)
	}
	return types, eris.Wrap(rows.Err(), "sqlite: distinct product types iterate")
}

func (s *SQLiteStore) SaveSimulation(ctx context.Context, rec *model.SimulationRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO simulations (id, client_id, product_id, product_name, term_months, amount, projected_value, rating, profile, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ClientID, rec.ProductID, rec.ProductName, rec.TermMonths,
		rec.Amount.String(), rec.ProjectedValue.String(), rec.Rating, string(rec.Profile),
		rec.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert simulation %s", rec.ID)
	}
	return checkRowsAffected(res, "simulation", rec.ID)
}

const simulationColumns = `id, client_id, product_id, product_name, term_months, amount, projected_value, rating, profile, created_at`

func (s *SQLiteStore) ListSimulations(ctx context.Context, filter SimulationFilter) (*model.SimulationPage, error) {
	filter = filter.normalize()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count simulations")
	}

	records, err := s.querySimulations(ctx,
		`SELECT `+simulationColumns+` FROM simulations ORDER BY created_at DESC, seq DESC LIMIT ? OFFSET ?`,
		filter.PageSize, filter.offset(),
	)
	if err != nil {
		return nil, err
	}
	return &model.SimulationPage{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
		Records:  records,
	}, nil
}

func (s *SQLiteStore) ListSimulationsByClient(ctx context.Context, clientID string) ([]model.SimulationRecord, error) {
	return s.querySimulations(ctx,
		`SELECT `+simulationColumns+` FROM simulations WHERE client_id = ? ORDER BY created_at DESC, seq DESC`,
		clientID,
	)
}

func (s *SQLiteStore) querySimulations(ctx context.Context, query string, args ...any) ([]model.SimulationRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list simulations")
	}
	defer rows.Close() //nolint:errcheck

	records := []model.SimulationRecord{}
	for rows.Next() {
		r, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list simulations iterate")
}

func (s *SQLiteStore) LatestClientProfile(ctx context.Context, clientID string) (*model.ClientProfile, error) {
	var (
		cp        model.ClientProfile
		profile   string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT client_id, profile, rating, created_at FROM simulations
		WHERE client_id = ? ORDER BY created_at DESC, seq DESC LIMIT 1`,
		clientID,
	).Scan(&cp.ClientID, &profile, &cp.Rating, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest profile for %s", clientID)
	}
	cp.Profile = model.RiskProfile(profile)
	if cp.UpdatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *SQLiteStore) ProductDailySummary(ctx context.Context) ([]model.ProductDaySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_name, substr(created_at, 1, 10) AS day, COUNT(*), AVG(CAST(projected_value AS REAL))
		FROM simulations
		GROUP BY product_name, day
		ORDER BY day DESC, product_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: product daily summary")
	}
	defer rows.Close() //nolint:errcheck

	summaries := []model.ProductDaySummary{}
	for rows.Next() {
		var (
			sum model.ProductDaySummary
			avg float64
		)
		if err := rows.Scan(&sum.ProductName, &sum.Day, &sum.Count, &avg); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product daily summary")
		}
		sum.AvgProjectedValue = decimal.NewFromFloat(avg).Round(2)
		summaries = append(summaries, sum)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: product daily summary iterate")
}

func (s *SQLiteStore) SimulationStats(ctx context.Context) (*model.SimulationStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT profile, COUNT(*), COALESCE(SUM(rating), 0) FROM simulations GROUP BY profile`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: simulation stats")
	}
	defer rows.Close() //nolint:errcheck
	return collectStats(rows)
}

func (s *SQLiteStore) SaveTelemetry(ctx context.Context, day time.Time, stats []model.EndpointStat) error {
	if len(stats) == 0 {
		return nil
	}
	d := dayString(day)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save telemetry")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, st := range stats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO endpoint_telemetry (day, endpoint, requests, successes, errors, total_duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(day, endpoint) DO UPDATE SET
				requests = endpoint_telemetry.requests + excluded.requests,
				successes = endpoint_telemetry.successes + excluded.successes,
				errors = endpoint_telemetry.errors + excluded.errors,
				total_duration_ms = endpoint_telemetry.total_duration_ms + excluded.total_duration_ms`,
			d, st.Endpoint, st.Requests, st.Successes, st.Errors, st.TotalDuration,
		); err != nil {
			return eris.Wrapf(err, "sqlite: save telemetry %s %s", d, st.Endpoint)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save telemetry")
}

func (s *SQLiteStore) ListTelemetry(ctx context.Context, from, to time.Time) ([]model.EndpointStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, endpoint, requests, successes, errors, total_duration_ms
		FROM endpoint_telemetry WHERE day >= ? AND day <= ? ORDER BY day, endpoint`,
		dayString(from), dayString(to),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list telemetry")
	}
	defer rows.Close() //nolint:errcheck
	return collectTelemetry(rows)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not written: %s", entity, id)
	}
	return nil
}

func parseSQLiteTime(v string) (time.Time, error) {
	t, err := time.ParseInLocation(sqliteTimeLayout, v, time.UTC)
	return t, eris.Wrapf(err, "sqlite: parse time %q", v)
}

type scannable interface {
	Scan(dest ...any) error
}

// scanProduct reads one products row. Decimal columns are scanned as text
// so the same helper serves both drivers.
func scanProduct(row scannable) (*model.Product, error) {
	var (
		p          model.Product
		rate, cost string
		profile    string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Type, &rate, &p.LiquidityDays, &p.RiskRating,
		&p.Issuer, &p.CreditRating, &cost, &p.AvgDailyVolume, &profile)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan product")
	}
	if p.AnnualRate, err = decimal.NewFromString(rate); err != nil {
		return nil, eris.Wrapf(err, "store: product %d annual_rate", p.ID)
	}
	if p.TransactionCostPct, err = decimal.NewFromString(cost); err != nil {
		return nil, eris.Wrapf(err, "store: product %d transaction_cost_pct", p.ID)
	}
	p.Profile = model.RiskProfile(profile)
	return &p, nil
}

func scanSimulation(row scannable) (*model.SimulationRecord, error) {
	var (
		r                 model.SimulationRecord
		amount, projected string
		profile           string
		createdAt         string
	)
	err := row.Scan(&r.ID, &r.ClientID, &r.ProductID, &r.ProductName, &r.TermMonths,
		&amount, &projected, &r.Rating, &profile, &createdAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan simulation")
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, eris.Wrapf(err, "sqlite: simulation %s amount", r.ID)
	}
	if r.ProjectedValue, err = decimal.NewFromString(projected); err != nil {
		return nil, eris.Wrapf(err, "sqlite: simulation %s projected_value", r.ID)
	}
	if r.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	r.Profile = model.RiskProfile(profile)
	return &r, nil
}

type rowIterator interface {
	scannable
	Next() bool
	Err() error
}

// collectStats folds (profile, count, rating sum) rows into a summary.
func collectStats(rows rowIterator) (*model.SimulationStats, error) {
	stats := &model.SimulationStats{ByProfile: map[model.RiskProfile]int{}}
	var ratingSum int64
	for rows.Next() {
		var (
			profile string
			count   int
			sum     int64
		)
		if err := rows.Scan(&profile, &count, &sum); err != nil {
			return nil, eris.Wrap(err, "store: scan simulation stats")
		}
		stats.ByProfile[model.RiskProfile(profile)] = count
		stats.Total += count
		ratingSum += sum
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: simulation stats iterate")
	}
	if stats.Total > 0 {
		stats.AvgRating = float64(ratingSum) / float64(stats.Total)
	}
	return stats, nil
}

func collectTelemetry(rows rowIterator) ([]model.EndpointStat, error) {
	stats := []model.EndpointStat{}
	for rows.Next() {
		var st model.EndpointStat
		if err := rows.Scan(&st.Day, &st.Endpoint, &st.Requests, &st.Successes, &st.Errors, &st.TotalDuration); err != nil {
			return nil, eris.Wrap(err, "store: scan telemetry")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "store: telemetry iterate")
}
