// Package pgrepos implements the core repositories on Postgres with
// hand-written SQL through sqlx.
package pgrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// getExec prefers the service-provided executor (usually a transaction) over
// the repository's default connection.
func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dflt
}

// structScan drains rows into dest (a pointer to a slice of structs) and
// closes them.
func structScan(rows *sql.Rows, dest interface{}, msg string) error {
	defer func() { _ = rows.Close() }()
	if err := sqlx.StructScan(rows, dest); err != nil {
		return errors.Wrap(err, msg)
	}
	return errors.Wrap(rows.Err(), msg)
}
