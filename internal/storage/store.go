package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runnerr0/haven/internal/activity"
)

// Store defines the interface for Haven data operations.
type Store interface {
	AddDownload(ctx context.Context, d *activity.RawDownload) error
	AddVisit(ctx context.Context, v *activity.RawVisit) error
	AddExclusions(ctx context.Context, domains []string, reason string) (int64, error)
	IsExcluded(domain string) bool
	FetchDownloads(ctx context.Context) ([]activity.RawDownload, error)
	FetchHistory(ctx context.Context, start, end time.Time) ([]activity.RawVisit, error)
	RemoveRecord(ctx context.Context, rec activity.Record) error
	CountExpired(ctx context.Context, olderThan time.Time) (int64, error)
	PruneExpired(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger

	// Prepared statements
	insertDownload *sql.Stmt
	insertVisit    *sql.Stmt
	deleteDownload *sql.Stmt
	deleteVisit    *sql.Stmt
	insertAudit    *sql.Stmt

	// Cached exclusion rules, reloaded after AddExclusions
	domainExclusions []string
	regexExclusions  []*regexp.Regexp
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SQLiteStore{db: db, log: log}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.loadExclusions(context.Background()); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertDownload, err = s.db.Prepare(`
		INSERT INTO downloads (id, target_path, target_size, source_url, succeeded, error, canceled,
			stopped, has_partial_data, state, bytes_transferred, total_bytes, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO visits (id, url, title, domain, visit_time) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.deleteDownload, err = s.db.Prepare(`DELETE FROM downloads WHERE id = ?`)
	if err != nil {
		return err
	}

	s.deleteVisit, err = s.db.Prepare(`DELETE FROM visits WHERE id = ?`)
	if err != nil {
		return err
	}

	s.insertAudit, err = s.db.Prepare(`
		INSERT INTO audit_log (action, detail, record_id, ts) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	return nil
}

// loadExclusions loads domain and regex exclusion rules from the database.
func (s *SQLiteStore) loadExclusions(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT rule_type, rule_value FROM exclusions")
	if err != nil {
		return err
	}
	defer rows.Close()

	var domains []string
	var regexes []*regexp.Regexp
	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return err
		}
		switch ruleType {
		case "domain":
			domains = append(domains, strings.ToLower(ruleValue))
		case "regex":
			re, err := regexp.Compile(ruleValue)
			if err != nil {
				s.log.Warn("skipping invalid exclusion regex", zap.String("rule", ruleValue), zap.Error(err))
				continue
			}
			regexes = append(regexes, re)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.domainExclusions, s.regexExclusions = domains, regexes
	return nil
}

// IsExcluded reports whether domain, or any parent domain, is blocked by
// an exclusion rule.
func (s *SQLiteStore) IsExcluded(domain string) bool {
	domain = strings.ToLower(domain)
	if domain == "" {
		return false
	}
	for _, d := range s.domainExclusions {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	for _, re := range s.regexExclusions {
		if re.MatchString(domain) {
			return true
		}
	}
	return false
}

// AddExclusions inserts domain rules, ignoring ones already present, and
// refreshes the cached rule set. It returns how many rules were new.
func (s *SQLiteStore) AddExclusions(ctx context.Context, domains []string, reason string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var added int64
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason) VALUES ('domain', ?, ?)`,
			d, reason,
		)
		if err != nil {
			return 0, fmt.Errorf("insert exclusion %s: %w", d, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit exclusions: %w", err)
	}
	return added, s.loadExclusions(ctx)
}

// formatTime renders t for storage; the zero time is stored as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(tsLayout)
}

// parseTimestamp tries several common SQLite timestamp formats. An empty
// string is the zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	formats := []string{
		tsLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// extractDomain pulls the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// AddDownload inserts a download entry. An empty ID is filled with a new
// UUID.
func (s *SQLiteStore) AddDownload(ctx context.Context, d *activity.RawDownload) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	_, err := s.insertDownload.ExecContext(ctx,
		d.ID, d.TargetPath, d.TargetSize, d.SourceURL, d.Succeeded, d.Error, d.Canceled,
		d.Stopped, d.HasPartialData, string(d.State), d.BytesTransferred, d.TotalBytes,
		formatTime(d.StartTime), formatTime(d.EndTime),
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	return nil
}

// AddVisit inserts a history visit. If the visit's domain is excluded, it
// is silently skipped and v.ID is left empty. A zero VisitTime is stamped
// with the current time.
func (s *SQLiteStore) AddVisit(ctx context.Context, v *activity.RawVisit) error {
	domain := extractDomain(v.URI)
	if s.IsExcluded(domain) {
		s.log.Debug("visit skipped by exclusion rule", zap.String("domain", domain))
		v.ID = ""
		return nil
	}

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.VisitTime.IsZero() {
		v.VisitTime = time.Now()
	}

	_, err := s.insertVisit.ExecContext(ctx, v.ID, v.URI, v.Title, domain, formatTime(v.VisitTime))
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// FetchDownloads lists every stored download, newest first.
func (s *SQLiteStore) FetchDownloads(ctx context.Context) ([]activity.RawDownload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target_path, target_size, source_url, succeeded, error, canceled,
		       stopped, has_partial_data, state, bytes_transferred, total_bytes, start_time, end_time
		FROM downloads
		ORDER BY CASE WHEN end_time != '' THEN end_time ELSE start_time END DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	downloads := []activity.RawDownload{}
	for rows.Next() {
		var d activity.RawDownload
		var state, start, end string
		if err := rows.Scan(
			&d.ID, &d.TargetPath, &d.TargetSize, &d.SourceURL, &d.Succeeded, &d.Error, &d.Canceled,
			&d.Stopped, &d.HasPartialData, &state, &d.BytesTransferred, &d.TotalBytes, &start, &end,
		); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		d.State = activity.DownloadState(state)
		// Unparseable times become zero; the normalizer drops undated entries.
		d.StartTime, _ = parseTimestamp(start)
		d.EndTime, _ = parseTimestamp(end)
		downloads = append(downloads, d)
	}

	return downloads, rows.Err()
}

// FetchHistory lists visits with start <= visit_time <= end, newest first.
func (s *SQLiteStore) FetchHistory(ctx context.Context, start, end time.Time) ([]activity.RawVisit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, visit_time FROM visits
		WHERE visit_time >= ? AND visit_time <= ?
		ORDER BY visit_time DESC
	`, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	visits := []activity.RawVisit{}
	for rows.Next() {
		var v activity.RawVisit
		var ts string
		if err := rows.Scan(&v.ID, &v.URI, &v.Title, &ts); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.VisitTime, _ = parseTimestamp(ts)
		visits = append(visits, v)
	}

	return visits, rows.Err()
}

// RemoveRecord deletes the row backing rec from the table matching its
// kind and records the removal in the audit log. It returns ErrNotFound
// when no row matches.
func (s *SQLiteStore) RemoveRecord(ctx context.Context, rec activity.Record) error {
	var stmt *sql.Stmt
	switch rec.Kind {
	case activity.KindDownload:
		stmt = s.deleteDownload
	case activity.KindHistoryVisit:
		stmt = s.deleteVisit
	default:
		return fmt.Errorf("remove %s: unknown record kind %q", rec.ID, rec.Kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.StmtContext(ctx, stmt).ExecContext(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", rec.Kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", rec.Kind, rec.ID, ErrNotFound)
	}

	if err := s.audit(ctx, tx, "remove", string(rec.Kind), rec.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) audit(ctx context.Context, tx *sql.Tx, action, detail, recordID string) error {
	var id any
	if recordID != "" {
		id = recordID
	}
	if _, err := tx.StmtContext(ctx, s.insertAudit).ExecContext(ctx, action, detail, id, formatTime(time.Now())); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// expiredDownloads matches downloads whose effective time (end, else
// start) is before the bound. Undated downloads never expire.
const expiredDownloads = `
	(CASE WHEN end_time != '' THEN end_time ELSE start_time END) != ''
	AND (CASE WHEN end_time != '' THEN end_time ELSE start_time END) < ?`

// CountExpired reports how many records PruneExpired would delete.
func (s *SQLiteStore) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	ts := formatTime(olderThan)
	var downloads, visits int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads WHERE"+expiredDownloads, ts).Scan(&downloads); err != nil {
		return 0, fmt.Errorf("count expired downloads: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits WHERE visit_time < ?", ts).Scan(&visits); err != nil {
		return 0, fmt.Errorf("count expired visits: %w", err)
	}
	return downloads + visits, nil
}

// PruneExpired deletes downloads and visits with timestamps before
// olderThan.
func (s *SQLiteStore) PruneExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	ts := formatTime(olderThan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64
	for _, q := range []struct{ name, sql string }{
		{"downloads", "DELETE FROM downloads WHERE" + expiredDownloads},
		{"visits", "DELETE FROM visits WHERE visit_time < ?"},
	} {
		res, err := tx.ExecContext(ctx, q.sql, ts)
		if err != nil {
			return 0, fmt.Errorf("prune %s: %w", q.name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := s.audit(ctx, tx, "prune", fmt.Sprintf("older_than=%s deleted=%d", ts, total), ""); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return total, nil
}

// PurgeAll deletes all downloads and visits. Exclusion rules and the audit
// log survive.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{"DELETE FROM downloads", "DELETE FROM visits"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	if err := s.audit(ctx, tx, "purge", "all activity deleted", ""); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM downloads", &stats.TotalDownloads},
		{"SELECT COUNT(*) FROM visits", &stats.TotalVisits},
		{"SELECT COUNT(*) FROM exclusions", &stats.Exclusions},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", c.query, err)
		}
	}

	// Oldest and newest across both tables; empty strings are skipped.
	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(ts), MAX(ts) FROM (
			SELECT CASE WHEN end_time != '' THEN end_time ELSE start_time END AS ts FROM downloads
			UNION ALL
			SELECT visit_time AS ts FROM visits
		) WHERE ts != ''
	`).Scan(&oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("activity time range: %w", err)
	}
	stats.OldestActivity, _ = parseTimestamp(oldest.String)
	stats.NewestActivity, _ = parseTimestamp(newest.String)

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}
	stats.DatabaseSizeBytes = pageCount * pageSize

	// Top domains
	rows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) as cnt FROM visits GROUP BY domain ORDER BY cnt DESC, domain LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// RecentAudit returns up to limit audit entries, newest first.
func (s *SQLiteStore) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT action, detail, record_id, ts FROM audit_log ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var recordID sql.NullString
		var ts string
		if err := rows.Scan(&e.Action, &e.Detail, &recordID, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.RecordID = recordID.String
		e.Time, _ = parseTimestamp(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SchemaVersion reports the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	return NewMigrationRunner(s.db).Version(ctx)
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	var errs []error
	stmts := []*sql.Stmt{
		s.insertDownload, s.insertVisit, s.deleteDownload,
		s.deleteVisit, s.insertAudit,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	return errors.Join(errs...)
}
