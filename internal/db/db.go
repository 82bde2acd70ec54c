package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	go_ora "github.com/sijms/go-ora/v2"

	"oracle-rag/internal/config"
	"oracle-rag/internal/faults"
)

// Connect opens an Oracle connection using the thin pure-Go driver and
// verifies it with a bounded ping. The returned handle is safe for reuse
// across catalog queries within one invocation.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Service, cfg.User, cfg.Password, nil)
	conn, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, errors.Wrapf(faults.ErrConnection, "open %s: %v", cfg.DSN(), err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, Classify(err, "ping "+cfg.DSN())
	}
	return conn, nil
}

// Classify maps a driver error onto a pipeline error kind. Oracle reports
// missing catalog privileges as ORA-00942 (object not visible) or ORA-01031;
// everything else from the driver, including a rejected logon (ORA-01017),
// is treated as a connection failure.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if werr, ok := faults.AsTimeout(err, op); ok {
		return werr
	}
	msg := err.Error()
	if strings.Contains(msg, "ORA-00942") || strings.Contains(msg, "ORA-01031") {
		return errors.Wrapf(faults.ErrPermission, "%s: %v", op, err)
	}
	return errors.Wrapf(faults.ErrConnection, "%s: %v", op, err)
}
