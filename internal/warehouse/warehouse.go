// Package warehouse publishes gold tables to Postgres using pgx v5. Each
// table is loaded with a COPY into a temporary staging table, a delete of
// the matching key rows in the target, and an insert from staging, so a
// re-published snapshot replaces the previous rows for the same keys instead
// of duplicating them.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
)

// TableSpec describes one warehouse target table.
type TableSpec struct {
	Name       string   // target table name, optionally schema-qualified
	Columns    []string // ordered columns for COPY and INSERT
	KeyColumns []string // columns identifying a row for replacement
}

// Specs returns the warehouse spec for every gold table, keyed by the gold
// bucket prefix the table is read from.
func Specs() []TableSpec {
	return []TableSpec{
		{
			Name: "daily_sales_summary",
			Columns: []string{
				"order_date", "total_orders", "unique_customers", "total_revenue",
				"avg_order_value", "total_units_sold", "avg_units_per_order",
			},
			KeyColumns: []string{"order_date"},
		},
		{
			Name: "customer_lifetime_value",
			Columns: []string{
				"customer_id", "total_orders", "lifetime_value", "avg_order_value",
				"segment", "first_order_date", "last_order_date",
				"days_as_customer", "days_since_last_order",
			},
			KeyColumns: []string{"customer_id"},
		},
		{
			Name: "product_performance",
			Columns: []string{
				"product_id", "times_ordered", "units_sold", "total_revenue",
				"avg_revenue_per_order", "product_name", "category",
				"current_price", "cost", "total_profit", "profit_margin",
				"revenue_rank",
			},
			KeyColumns: []string{"product_id"},
		},
	}
}

// Publisher owns a connection pool to the warehouse database.
type Publisher struct {
	pool *pgxpool.Pool
}

// New connects a Publisher to the warehouse.
func New(ctx context.Context, dsn string) (*Publisher, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Publisher{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Publisher) Close() { p.pool.Close() }

// Publish replaces the rows keyed by spec.KeyColumns with the given batch.
// Missing record fields are published as NULL. Returns the number of rows
// copied into staging.
func (p *Publisher) Publish(ctx context.Context, spec TableSpec, rows []records.Record) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(spec.Columns) == 0 {
		return 0, fmt.Errorf("table %s: no columns configured", spec.Name)
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tmp := stagingName(spec.Name)
	if _, err := conn.Exec(ctx, createStagingSQL(spec, tmp)); err != nil {
		return 0, fmt.Errorf("create staging: %w", err)
	}
	defer func() { _, _ = conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(tmp)) }()

	copied, err := conn.CopyFrom(ctx, pgx.Identifier{tmp}, spec.Columns, pgx.CopyFromRows(rowValues(spec.Columns, rows)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into staging: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into staging: %w", err)
	}

	if _, err := conn.Exec(ctx, deleteMatchingSQL(spec, tmp)); err != nil {
		return 0, fmt.Errorf("delete matching rows: %w", err)
	}
	if _, err := conn.Exec(ctx, insertFromStagingSQL(spec, tmp)); err != nil {
		return 0, fmt.Errorf("insert from staging: %w", err)
	}
	return copied, nil
}

// rowValues projects records onto the column order pgx expects; a field
// absent from a record becomes NULL.
func rowValues(columns []string, recs []records.Record) [][]any {
	out := make([][]any, 0, len(recs))
	for _, rec := range recs {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = rec[c]
		}
		out = append(out, row)
	}
	return out
}

func stagingName(table string) string {
	return "tmp_" + strings.ReplaceAll(table, ".", "_")
}

func createStagingSQL(spec TableSpec, tmp string) string {
	return fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT %s FROM %s WHERE false",
		pgIdent(tmp), strings.Join(mapIdent(spec.Columns), ","), pgFQN(spec.Name))
}

func deleteMatchingSQL(spec TableSpec, tmp string) string {
	conds := make([]string, 0, len(spec.KeyColumns))
	for _, col := range spec.KeyColumns {
		conds = append(conds, fmt.Sprintf("T.%s = S.%s", pgIdent(col), pgIdent(col)))
	}
	return fmt.Sprintf("DELETE FROM %s AS T USING %s AS S WHERE %s",
		pgFQN(spec.Name), pgIdent(tmp), strings.Join(conds, " AND "))
}

func insertFromStagingSQL(spec TableSpec, tmp string) string {
	cols := strings.Join(mapIdent(spec.Columns), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		pgFQN(spec.Name), cols, cols, pgIdent(tmp))
}

// pgIdent quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.daily_sales_summary".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
