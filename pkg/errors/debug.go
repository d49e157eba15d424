package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Store dialects reported by Dump.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// ErrorDump is the log-friendly view of an error chain. Store fields are only
// populated when a driver error is found in the chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	Dialect         string `json:"db_dialect,omitempty"`
	StoreCode       string `json:"db_code,omitempty"`
	StoreConstraint string `json:"db_constraint,omitempty"`
	StoreTable      string `json:"db_table,omitempty"`
	StoreColumn     string `json:"db_column,omitempty"`
	StoreDetail     string `json:"db_detail,omitempty"`
	StoreMessage    string `json:"db_message,omitempty"`
}

// Fields flattens the dump into logger fields, skipping empty store values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Dialect == "" {
		return fields
	}
	fields["db_dialect"] = d.Dialect
	for key, value := range map[string]string{
		"db_code":       d.StoreCode,
		"db_constraint": d.StoreConstraint,
		"db_table":      d.StoreTable,
		"db_column":     d.StoreColumn,
		"db_detail":     d.StoreDetail,
		"db_message":    d.StoreMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		d.Dialect = DialectPostgres
		d.StoreCode = pgxErr.Code
		d.StoreConstraint = pgxErr.ConstraintName
		d.StoreTable = pgxErr.TableName
		d.StoreColumn = pgxErr.ColumnName
		d.StoreDetail = pgxErr.Detail
		d.StoreMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.Dialect = DialectPostgres
		d.StoreCode = string(pqErr.Code)
		d.StoreConstraint = pqErr.Constraint
		d.StoreTable = pqErr.Table
		d.StoreColumn = pqErr.Column
		d.StoreDetail = pqErr.Detail
		d.StoreMessage = pqErr.Message
	case errors.As(err, &liteErr):
		d.Dialect = DialectSQLite
		d.StoreCode = fmt.Sprintf("%d", int(liteErr.ExtendedCode))
		d.StoreMessage = liteErr.Error()
	}
	return d
}
