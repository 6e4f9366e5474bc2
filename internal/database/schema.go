package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/eventdesk/internal/model"
)

// principalDDL and resourceDDL are rendered per variant.  Email uses a
// binary collation so identities compare case-sensitively, and resources
// reference their owner table so a resource can never outlive its owner.
const principalDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
	id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	email         VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	full_name     VARCHAR(255) NULL,
	is_active     TINYINT(1) NOT NULL DEFAULT 1,
	%[2]s TINYINT(1) NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uq_%[1]s_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const resourceDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
	id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	owner_id    BIGINT UNSIGNED NOT NULL,
	title       VARCHAR(255) NOT NULL,
	description TEXT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	KEY ix_%[1]s_owner (owner_id),
	CONSTRAINT fk_%[1]s_owner FOREIGN KEY (owner_id) REFERENCES %[2]s (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Statements returns the DDL needed by both variants, owners first.
func Statements() []string {
	var out []string
	for _, v := range []model.Variant{model.VariantUser, model.VariantOrganizer} {
		out = append(out,
			fmt.Sprintf(principalDDL, v.PrincipalTable(), v.PrivilegedField()),
			fmt.Sprintf(resourceDDL, v.ResourceTable(), v.PrincipalTable()),
		)
	}
	return out
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
