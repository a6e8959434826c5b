// Package activity defines the canonical activity record shared by the
// download and history panels, and the normalization that produces it from
// raw external-store entries.
package activity

import "time"

// Status is the lifecycle state of an activity record.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPaused    Status = "paused"
	StatusUnknown   Status = "unknown"
)

// Display returns the human label for a status.
func (s Status) Display() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Category is the coarse file category used by the category tabs.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryMedia     Category = "media"
	CategoryDocuments Category = "documents"
)

// Kind identifies which external store a record came from.
type Kind string

const (
	KindDownload     Kind = "download"
	KindHistoryVisit Kind = "history-visit"
)

// Record is a normalized download or history visit.
//
// Timestamp has millisecond resolution and is never zero for a record that
// survived normalization.
type Record struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	URL           string    `json:"url"`
	Title         string    `json:"title,omitempty"`
	TargetPath    string    `json:"target_path,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Status        Status    `json:"status"`
	SizeBytes     int64     `json:"size_bytes"`
	ProgressBytes int64     `json:"progress_bytes"`
	Category      Category  `json:"category"`
	Kind          Kind      `json:"kind"`
}

// ProgressPercent reports transfer progress in the range [0, 100].
// Completed records always report 100.
func (r Record) ProgressPercent() float64 {
	if r.Status == StatusCompleted {
		return 100
	}
	if r.SizeBytes <= 0 || r.ProgressBytes <= 0 {
		return 0
	}
	pct := float64(r.ProgressBytes) / float64(r.SizeBytes) * 100
	return min(100, max(0, pct))
}

// TypeLabel returns the short type badge for the record's filename.
func (r Record) TypeLabel() string {
	return TypeLabel(r.Filename)
}

// DownloadState mirrors the download manager's coarse state machine.
type DownloadState string

const (
	StateNone            DownloadState = ""
	StateDownloading     DownloadState = "downloading"
	StatePaused          DownloadState = "paused"
	StateScanning        DownloadState = "scanning"
	StateBlockedParental DownloadState = "blocked_parental"
	StateBlockedPolicy   DownloadState = "blocked_policy"
	StateBlockedSecurity DownloadState = "blocked_security"
	StateDirty           DownloadState = "dirty"
)

// RawDownload is a download entry as reported by the external download store.
type RawDownload struct {
	ID               string        `json:"id,omitempty"`
	TargetPath       string        `json:"target_path"`
	TargetSize       int64         `json:"target_size"` // final on-disk size, reported separately from TotalBytes
	SourceURL        string        `json:"source_url"`
	Succeeded        bool          `json:"succeeded"`
	Error            string        `json:"error,omitempty"`
	Canceled         bool          `json:"canceled"`
	Stopped          bool          `json:"stopped"`
	HasPartialData   bool          `json:"has_partial_data"`
	State            DownloadState `json:"state,omitempty"`
	BytesTransferred int64         `json:"bytes_transferred"`
	TotalBytes       int64         `json:"total_bytes"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
}

// RawVisit is a single page visit as reported by the external history store.
type RawVisit struct {
	ID        string    `json:"id,omitempty"`
	URI       string    `json:"url"`
	Title     string    `json:"title"`
	VisitTime time.Time `json:"visit_time"`
}
