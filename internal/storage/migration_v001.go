package storage

import "database/sql"

// migrateV001 creates the initial Haven schema: activity tables, the
// exclusion list and the audit log. Every statement uses IF NOT EXISTS for
// idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS downloads (
			id                TEXT PRIMARY KEY,
			target_path       TEXT NOT NULL DEFAULT '',
			target_size       INTEGER NOT NULL DEFAULT 0,
			source_url        TEXT NOT NULL DEFAULT '',
			succeeded         BOOLEAN NOT NULL DEFAULT 0,
			error             TEXT NOT NULL DEFAULT '',
			canceled          BOOLEAN NOT NULL DEFAULT 0,
			stopped           BOOLEAN NOT NULL DEFAULT 0,
			has_partial_data  BOOLEAN NOT NULL DEFAULT 0,
			state             TEXT NOT NULL DEFAULT '',
			bytes_transferred INTEGER NOT NULL DEFAULT 0,
			total_bytes       INTEGER NOT NULL DEFAULT 0,
			start_time        TEXT NOT NULL DEFAULT '',
			end_time          TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS visits (
			id         TEXT PRIMARY KEY,
			url        TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			domain     TEXT NOT NULL DEFAULT '',
			visit_time TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			action    TEXT NOT NULL,
			detail    TEXT NOT NULL DEFAULT '',
			record_id TEXT,
			ts        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_downloads_end_time   ON downloads(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_start_time ON downloads(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_visit_time    ON visits(visit_time)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_domain        ON visits(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule      ON exclusions(rule_type, rule_value)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts         ON audit_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action     ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	// ── Default exclusion rules ────────────────────────────────
	return seedDefaultExclusions(tx)
}

// seedDefaultExclusions inserts the curated denylist. Uses INSERT OR IGNORE
// so re-running is safe.
func seedDefaultExclusions(tx *sql.Tx) error {
	type rule struct {
		RuleType  string
		RuleValue string
		Reason    string
	}

	defaults := []rule{
		{"domain", "chase.com", "Banking - financial privacy"},
		{"domain", "bankofamerica.com", "Banking - financial privacy"},
		{"domain", "paypal.com", "Payment - financial privacy"},
		{"domain", "1password.com", "Password manager - credential privacy"},
		{"domain", "bitwarden.com", "Password manager - credential privacy"},
		{"domain", "accounts.google.com", "Auth provider - credential privacy"},
		{"domain", "login.microsoftonline.com", "Auth provider - credential privacy"},
		{"domain", "mychart.com", "Healthcare - HIPAA privacy"},
		{"regex", `.*\.xxx$`, "Adult content exclusion"},
	}

	const insertSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason, is_default) VALUES (?, ?, ?, 1)`

	for _, r := range defaults {
		if _, err := tx.Exec(insertSQL, r.RuleType, r.RuleValue, r.Reason); err != nil {
			return err
		}
	}

	return nil
}
