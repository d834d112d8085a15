package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/wedding-seating/internal/logging"
)

// schema is written in the subset of DDL that MySQL and sqlite both accept:
// no inline secondary indexes, no ON UPDATE clauses, no foreign keys.
// Child rows are removed by the repositories inside one transaction.
var schema = []struct {
	name string
	ddl  string
}{
	{"charts", `CREATE TABLE IF NOT EXISTS charts (
		id          VARCHAR(36)  NOT NULL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		event_date  VARCHAR(10)  NULL,
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"chart_tables", `CREATE TABLE IF NOT EXISTS chart_tables (
		id            VARCHAR(36)  NOT NULL PRIMARY KEY,
		chart_id      VARCHAR(36)  NOT NULL,
		name          VARCHAR(255) NOT NULL,
		shape         VARCHAR(16)  NOT NULL,
		capacity      INT          NOT NULL,
		width         DOUBLE       NULL,
		height        DOUBLE       NULL,
		rotation      DOUBLE       NOT NULL DEFAULT 0,
		description   TEXT         NULL,
		is_default    BOOLEAN      NOT NULL DEFAULT FALSE,
		is_venue_item BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"table_positions", `CREATE TABLE IF NOT EXISTS table_positions (
		table_id  VARCHAR(36) NOT NULL PRIMARY KEY,
		chart_id  VARCHAR(36) NOT NULL,
		x         DOUBLE      NOT NULL,
		y         DOUBLE      NOT NULL,
		rotation  DOUBLE      NOT NULL DEFAULT 0
	)`},
	{"guests", `CREATE TABLE IF NOT EXISTS guests (
		id              VARCHAR(36)  NOT NULL PRIMARY KEY,
		chart_id        VARCHAR(36)  NOT NULL,
		full_name       VARCHAR(255) NOT NULL,
		relationship    VARCHAR(255) NULL,
		meal_preference VARCHAR(255) NULL,
		notes           TEXT         NULL,
		custom_fields   TEXT         NULL,
		created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"guest_groups", `CREATE TABLE IF NOT EXISTS guest_groups (
		id          VARCHAR(36)  NOT NULL PRIMARY KEY,
		chart_id    VARCHAR(36)  NOT NULL,
		name        VARCHAR(255) NOT NULL,
		group_type  VARCHAR(16)  NOT NULL,
		created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"group_members", `CREATE TABLE IF NOT EXISTS group_members (
		group_id  VARCHAR(36) NOT NULL,
		guest_id  VARCHAR(36) NOT NULL,
		PRIMARY KEY (group_id, guest_id)
	)`},
	{"guest_assignments", `CREATE TABLE IF NOT EXISTS guest_assignments (
		guest_id    VARCHAR(36) NOT NULL PRIMARY KEY,
		chart_id    VARCHAR(36) NOT NULL,
		table_id    VARCHAR(36) NOT NULL,
		seat_index  INT         NOT NULL,
		seq         BIGINT      NOT NULL DEFAULT 0
	)`},
}

// Migrate creates every table that does not exist yet.  All statements run
// in one transaction on engines that support transactional DDL; MySQL
// commits each CREATE implicitly, which is harmless because they are
// idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range schema {
		logging.SLog.Debugf("migrating %s table", s.name)
		if _, err := tx.ExecContext(ctx, s.ddl); err != nil {
			logging.Log.Error("migration failed", zap.String("table", s.name), zap.Error(err))
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	logging.SLog.Infof("schema ready (%d tables)", len(schema))
	return nil
}
