package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/invest-sim/internal/db"
	"github.com/sells-group/invest-sim/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgInsertSimulation = `INSERT INTO simulations (id, client_id, product_id, product_name, term_months, amount, projected_value, rating, profile, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	pgSelectProducts = `SELECT id, name, type, annual_rate::text, liquidity_days, risk_rating, issuer, credit_rating, transaction_cost_pct::text, avg_daily_volume, profile FROM products`
	pgSelectSimulations = `SELECT id, client_id, product_id, product_name, term_months, amount::text, projected_value::text, rating, profile, created_at FROM simulations`
	pgLatestProfile     = `SELECT client_id, profile, rating, created_at FROM simulations WHERE client_id = $1 ORDER BY created_at DESC, seq DESC LIMIT 1`
	pgDistinctTypes     = `SELECT DISTINCT type FROM products ORDER BY type`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"insert_simulation":      pgInsertSimulation,
	"latest_client_profile":  pgLatestProfile,
	"list_products":          pgSelectProducts + ` ORDER BY id`,
	"distinct_product_types": pgDistinctTypes,
}

var productUpsert = db.UpsertConfig{
	Table: "products",
	Columns: []string{
		"id", "name", "type", "annual_rate", "liquidity_days", "risk_rating",
		"issuer", "credit_rating", "transaction_cost_pct", "avg_daily_volume", "profile",
	},
	ConflictKeys: []string{"id"},
}

var telemetryUpsert = db.UpsertConfig{
	Table:        "endpoint_telemetry",
	Columns:      []string{"day", "endpoint", "requests", "successes", "errors", "total_duration_ms"},
	ConflictKeys: []string{"day", "endpoint"},
	// Each save carries counts since the previous one.
	AccumulateCols: []string{"requests", "successes", "errors", "total_duration_ms"},
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	cfg := db.PoolConfig{
		AfterConnect: func(ctx context.Context, conn *pgx.Conn) error {
			for name, sql := range preparedStatements {
				if _, err := conn.Prepare(ctx, name, sql); err != nil {
					return eris.Wrapf(err, "postgres: prepare %s", name)
				}
			}
			return nil
		},
	}
	if poolCfg != nil {
		cfg.MaxConns = poolCfg.MaxConns
		cfg.MinConns = poolCfg.MinConns
	}

	pool, err := db.NewPool(ctx, connString, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	id                   BIGINT PRIMARY KEY,
	name                 TEXT NOT NULL,
	type                 TEXT NOT NULL,
	annual_rate          NUMERIC(12,6) NOT NULL,
	liquidity_days       INTEGER NOT NULL DEFAULT 0,
	risk_rating          TEXT NOT NULL DEFAULT '',
	issuer               TEXT NOT NULL DEFAULT '',
	credit_rating        TEXT NOT NULL DEFAULT '',
	transaction_cost_pct NUMERIC(12,6) NOT NULL DEFAULT 0,
	avg_daily_volume     BIGINT NOT NULL DEFAULT 0,
	profile              TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS simulations (
	seq             BIGSERIAL PRIMARY KEY,
	id              TEXT NOT NULL UNIQUE,
	client_id       TEXT NOT NULL,
	product_id      BIGINT NOT NULL,
	product_name    TEXT NOT NULL DEFAULT '',
	term_months     INTEGER NOT NULL,
	amount          NUMERIC(18,2) NOT NULL,
	projected_value NUMERIC(18,2) NOT NULL,
	rating          INTEGER NOT NULL,
	profile         TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS endpoint_telemetry (
	day               TEXT NOT NULL,
	endpoint          TEXT NOT NULL,
	requests          BIGINT NOT NULL DEFAULT 0,
	successes         BIGINT NOT NULL DEFAULT 0,
	errors            BIGINT NOT NULL DEFAULT 0,
	total_duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (day, endpoint)
);

CREATE INDEX IF NOT EXISTS idx_products_profile ON products(profile);
CREATE INDEX IF NOT EXISTS idx_products_type ON products(type);
CREATE INDEX IF NOT EXISTS idx_simulations_client ON simulations(client_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_simulations_created_at ON simulations(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// numeric converts d without a float round trip. COPY encodes in binary,
// where plain strings are not accepted for NUMERIC columns.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func (s *PostgresStore) UpsertProducts(ctx context.Context, products []model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	if err := validateProducts(products); err != nil {
		return 0, err
	}

	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = []any{
			p.ID, p.Name, p.Type, numeric(p.AnnualRate), int32(p.LiquidityDays), p.RiskRating,
			p.Issuer, p.CreditRating, numeric(p.TransactionCostPct), p.AvgDailyVolume, string(p.Profile),
		}
	}
	if _, err := db.BulkUpsert(ctx, s.pool, productUpsert, rows); err != nil {
		return 0, eris.Wrap(err, "postgres: upsert products")
	}
	return len(products), nil
}

func (s *PostgresStore) PruneProducts(ctx context.Context, keep []int64) (int, error) {
	if err := validateKeep(keep); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE NOT (id = ANY($1))`, keep)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune products")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.queryProducts(ctx, pgSelectProducts+` ORDER BY id`)
}

func (s *PostgresStore) ListProductsByProfile(ctx context.Context, profile model.RiskProfile) ([]model.Product, error) {
	return s.queryProducts(ctx, pgSelectProducts+` WHERE profile = $1 ORDER BY name, id`, string(profile))
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) DistinctProductTypes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, pgDistinctTypes)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct product types")
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product type")
		}
		types = append(types, t)
	}
	return types, eris.Wrap(rows.Err(), "postgres: distinct product types iterate")
}

func (s *PostgresStore) SaveSimulation(ctx context.Context, rec *model.SimulationRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, pgInsertSimulation,
		rec.ID, rec.ClientID, rec.ProductID, rec.ProductName, rec.TermMonths,
		rec.Amount.String(), rec.ProjectedValue.String(), rec.Rating, string(rec.Profile),
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert simulation %s", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("simulation not written: %s", rec.ID)
	}
	return nil
}

func (s *PostgresStore) ListSimulations(ctx context.Context, filter SimulationFilter) (*model.SimulationPage, error) {
	filter = filter.normalize()

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "postgres: count simulations")
	}

	records, err := s.querySimulations(ctx,
		pgSelectSimulations+` ORDER BY created_at DESC, seq DESC LIMIT $1 OFFSET $2`,
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

func (s *PostgresStore) ListSimulationsByClient(ctx context.Context, clientID string) ([]model.SimulationRecord, error) {
	return s.querySimulations(ctx,
		pgSelectSimulations+` WHERE client_id = $1 ORDER BY created_at DESC, seq DESC`,
		clientID,
	)
}

func (s *PostgresStore) querySimulations(ctx context.Context, query string, args ...any) ([]model.SimulationRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list simulations")
	}
	defer rows.Close()

	records := []model.SimulationRecord{}
	for rows.Next() {
		var (
			r                 model.SimulationRecord
			amount, projected string
			profile           string
		)
		if err := rows.Scan(&r.ID, &r.ClientID, &r.ProductID, &r.ProductName, &r.TermMonths,
			&amount, &projected, &r.Rating, &profile, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan simulation")
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, eris.Wrapf(err, "postgres: simulation %s amount", r.ID)
		}
		if r.ProjectedValue, err = decimal.NewFromString(projected); err != nil {
			return nil, eris.Wrapf(err, "postgres: simulation %s projected_value", r.ID)
		}
		r.Profile = model.RiskProfile(profile)
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list simulations iterate")
}

func (s *PostgresStore) LatestClientProfile(ctx context.Context, clientID string) (*model.ClientProfile, error) {
	var (
		cp      model.ClientProfile
		profile string
	)
	err := s.pool.QueryRow(ctx, pgLatestProfile, clientID).
		Scan(&cp.ClientID, &profile, &cp.Rating, &cp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest profile for %s", clientID)
	}
	cp.Profile = model.RiskProfile(profile)
	cp.UpdatedAt = cp.UpdatedAt.UTC()
	return &cp, nil
}

func (s *PostgresStore) ProductDailySummary(ctx context.Context) ([]model.ProductDaySummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT product_name, to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			COUNT(*), ROUND(AVG(projected_value), 2)::text
		FROM simulations
		GROUP BY product_name, day
		ORDER BY day DESC, product_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: product daily summary")
	}
	defer rows.Close()

	summaries := []model.ProductDaySummary{}
	for rows.Next() {
		var (
			sum model.ProductDaySummary
			avg string
		)
		if err := rows.Scan(&sum.ProductName, &sum.Day, &sum.Count, &avg); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product daily summary")
		}
		if sum.AvgProjectedValue, err = decimal.NewFromString(avg); err != nil {
			return nil, eris.Wrapf(err, "postgres: summary %s %s average", sum.ProductName, sum.Day)
		}
		summaries = append(summaries, sum)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: product daily summary iterate")
}

func (s *PostgresStore) SimulationStats(ctx context.Context) (*model.SimulationStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT profile, COUNT(*), COALESCE(SUM(rating), 0) FROM simulations GROUP BY profile`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: simulation stats")
	}
	defer rows.Close()
	return collectStats(rows)
}

func (s *PostgresStore) SaveTelemetry(ctx context.Context, day time.Time, stats []model.EndpointStat) error {
	d := dayString(day)
	rows := make([][]any, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []any{d, st.Endpoint, st.Requests, st.Successes, st.Errors, st.TotalDuration})
	}
	if _, err := db.BulkUpsert(ctx, s.pool, telemetryUpsert, rows); err != nil {
		return eris.Wrapf(err, "postgres: save telemetry %s", d)
	}
	return nil
}

func (s *PostgresStore) ListTelemetry(ctx context.Context, from, to time.Time) ([]model.EndpointStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, endpoint, requests, successes, errors, total_duration_ms
		FROM endpoint_telemetry WHERE day >= $1 AND day <= $2 ORDER BY day, endpoint`,
		dayString(from), dayString(to),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list telemetry")
	}
	defer rows.Close()
	return collectTelemetry(rows)
}
