package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productUpsert = UpsertConfig{
	Table:        "products",
	Columns:      []string{"id", "name", "annual_rate"},
	ConflictKeys: []string{"id"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, productUpsert, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "products",
		ConflictKeys: []string{"id"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "products",
		Columns: []string{"id", "name"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TEMP TABLE "_tmp_upsert_products" (LIKE "products" INCLUDING DEFAULTS) ON COMMIT DROP`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_products"}, productUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rows := [][]any{{1, "CDB", "0.12"}, {2, "LCI", "0.09"}}
	n, err := BulkUpsert(context.Background(), mock, productUpsert, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBulkUpsert_CopyFailureRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_products"}, productUpsert.Columns).
		WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, productUpsert, [][]any{{1, "CDB", "0.12"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage rows for products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("too many connections"))

	_, err = BulkUpsert(context.Background(), mock, productUpsert, [][]any{{1, "CDB", "0.12"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestUpsertSQL(t *testing.T) {
	got := productUpsert.upsertSQL()
	assert.Equal(t,
		`INSERT INTO "products" ("id", "name", "annual_rate") SELECT "id", "name", "annual_rate" FROM "_tmp_upsert_products" ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "annual_rate" = EXCLUDED."annual_rate"`,
		got)

	keysOnly := UpsertConfig{Table: "invest.tags", Columns: []string{"id"}, ConflictKeys: []string{"id"}}
	assert.Equal(t,
		`INSERT INTO "invest"."tags" ("id") SELECT "id" FROM "_tmp_upsert_invest_tags" ON CONFLICT ("id") DO NOTHING`,
		keysOnly.upsertSQL())
}

func TestUpsertSQL_Accumulate(t *testing.T) {
	counters := UpsertConfig{
		Table:          "endpoint_telemetry",
		Columns:        []string{"day", "endpoint", "requests", "label"},
		ConflictKeys:   []string{"day", "endpoint"},
		AccumulateCols: []string{"requests"},
	}
	assert.Equal(t,
		`INSERT INTO "endpoint_telemetry" ("day", "endpoint", "requests", "label") SELECT "day", "endpoint", "requests", "label" FROM "_tmp_upsert_endpoint_telemetry" ON CONFLICT ("day", "endpoint") DO UPDATE SET "requests" = "endpoint_telemetry"."requests" + EXCLUDED."requests", "label" = EXCLUDED."label"`,
		counters.upsertSQL())
}

func TestUpdateColumns(t *testing.T) {
	assert.Equal(t, []string{"name", "annual_rate"}, productUpsert.updateColumns())

	explicit := productUpsert
	explicit.UpdateCols = []string{"annual_rate"}
	assert.Equal(t, []string{"annual_rate"}, explicit.updateColumns())
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
