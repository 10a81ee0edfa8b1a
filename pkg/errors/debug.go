package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE values the order path can trip over.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgInvalidEncoding = "22021"
	pgNumericOverflow = "22003"
)

// Diagnostics is the log-only view of a failed request. Nothing here reaches
// the client envelope.
type Diagnostics struct {
	Message string
	Code    Code
	Chain   []string
	PG      *PGDiagnostics
}

// PGDiagnostics carries the Postgres side of a failure, from either driver.
type PGDiagnostics struct {
	SQLState   string
	Constraint string
	Table      string
	Detail     string
	Message    string
}

// Kind names the SQLSTATE in order-domain terms. A check violation on
// product_store is the remaining_stock >= 0 guard firing.
func (p PGDiagnostics) Kind() string {
	switch p.SQLState {
	case pgUniqueViolation:
		return "duplicate"
	case pgCheckViolation:
		if p.Table == "product_store" {
			return "stock_guard"
		}
		return "check_violation"
	case pgInvalidEncoding:
		return "invalid_utf8"
	case pgNumericOverflow:
		return "numeric_overflow"
	}
	return ""
}

// Diagnose walks the wrap chain of err and pulls out the typed code and any
// Postgres error found along it.
func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}
	d := Diagnostics{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.PG = postgresDiagnostics(err)
	return d
}

func postgresDiagnostics(err error) *PGDiagnostics {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDiagnostics{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGDiagnostics{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}

// Fields flattens the diagnostics into structured log fields.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.PG == nil {
		return fields
	}
	fields["pg_code"] = d.PG.SQLState
	fields["pg_constraint"] = d.PG.Constraint
	fields["pg_table"] = d.PG.Table
	fields["pg_detail"] = d.PG.Detail
	fields["pg_message"] = d.PG.Message
	if kind := d.PG.Kind(); kind != "" {
		fields["pg_kind"] = kind
	}
	return fields
}
