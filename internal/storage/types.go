package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record id matches no row.
var ErrNotFound = errors.New("record not found")

// Stats holds aggregate statistics about the Haven database.
type Stats struct {
	TotalDownloads    int64         `json:"total_downloads"`
	TotalVisits       int64         `json:"total_visits"`
	Exclusions        int64         `json:"exclusions"`
	OldestActivity    time.Time     `json:"oldest_activity"`
	NewestActivity    time.Time     `json:"newest_activity"`
	DatabaseSizeBytes int64         `json:"database_size_bytes"`
	TopDomains        []DomainCount `json:"top_domains"`
}

// DomainCount pairs a domain with its visit count.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// AuditEntry is one row of the audit log.
type AuditEntry struct {
	Action   string    `json:"action"`
	Detail   string    `json:"detail"`
	RecordID string    `json:"record_id,omitempty"`
	Time     time.Time `json:"time"`
}
