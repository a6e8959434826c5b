package activity

import (
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FallbackFilename is used when neither the target path nor the source URL
// yields a usable name.
const FallbackFilename = "Unknown Filename"

// Normalizer converts raw store entries into Records. It never fails: a
// field that cannot be derived degrades to its fallback and the problem is
// logged.
type Normalizer struct {
	log *zap.Logger
}

// NewNormalizer returns a Normalizer that reports degraded fields to log.
// A nil logger discards them.
func NewNormalizer(log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log}
}

// Downloads normalizes a batch, dropping entries without a timestamp.
func (n *Normalizer) Downloads(raws []RawDownload) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := n.Download(raw); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Visits normalizes a batch, dropping entries without a timestamp.
func (n *Normalizer) Visits(raws []RawVisit) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := n.Visit(raw); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Download normalizes one download entry. ok is false when the entry has no
// resolvable timestamp and must be excluded from the working set.
func (n *Normalizer) Download(raw RawDownload) (Record, bool) {
	ts := raw.EndTime
	if ts.IsZero() {
		ts = raw.StartTime
	}
	if ts.IsZero() {
		n.log.Debug("dropping download without timestamp", zap.String("id", raw.ID))
		return Record{}, false
	}

	filename := n.resolveFilename(raw.ID, raw.TargetPath, raw.SourceURL)
	status := downloadStatus(raw)
	size, progress := correctBytes(status, raw.TotalBytes, raw.BytesTransferred, raw.TargetSize)

	return Record{
		ID:            raw.ID,
		Filename:      filename,
		URL:           raw.SourceURL,
		TargetPath:    raw.TargetPath,
		Timestamp:     truncateMillis(ts),
		Status:        status,
		SizeBytes:     size,
		ProgressBytes: progress,
		Category:      Classify(filename),
		Kind:          KindDownload,
	}, true
}

// Visit normalizes one history visit. Visits are always reported as
// completed since there is nothing in flight.
func (n *Normalizer) Visit(raw RawVisit) (Record, bool) {
	if raw.VisitTime.IsZero() {
		n.log.Debug("dropping visit without timestamp", zap.String("id", raw.ID))
		return Record{}, false
	}

	name := strings.TrimSpace(raw.Title)
	if name == "" {
		name = n.visitName(raw.ID, raw.URI)
	}

	return Record{
		ID:        raw.ID,
		Filename:  name,
		URL:       raw.URI,
		Title:     raw.Title,
		Timestamp: truncateMillis(raw.VisitTime),
		Status:    StatusCompleted,
		Category:  Classify(name),
		Kind:      KindHistoryVisit,
	}, true
}

func (n *Normalizer) resolveFilename(id, targetPath, sourceURL string) string {
	if targetPath != "" {
		if name := basename(targetPath); name != "" {
			return name
		}
		n.log.Warn("target path has no basename",
			zap.String("id", id), zap.String("path", targetPath))
	}

	if sourceURL != "" {
		if name := n.urlFilename(id, sourceURL); name != "" {
			return name
		}
		n.log.Warn("source url has no usable path segment",
			zap.String("id", id), zap.String("url", sourceURL))
	}

	return FallbackFilename
}

func (n *Normalizer) visitName(id, uri string) string {
	if uri == "" {
		return FallbackFilename
	}
	if name := n.urlFilename(id, uri); name != "" {
		return name
	}
	if u, err := url.Parse(uri); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return FallbackFilename
}

// urlFilename decodes rawURL and returns its last non-empty path segment
// without query string or fragment.
func (n *Normalizer) urlFilename(id, rawURL string) string {
	decoded, err := url.PathUnescape(rawURL)
	if err != nil {
		n.log.Debug("cannot decode url, using raw form",
			zap.String("id", id), zap.String("url", rawURL), zap.Error(err))
		decoded = rawURL
	}

	if u, err := url.Parse(decoded); err == nil && u.Scheme != "" {
		return lastSegment(u.Path)
	}

	// Not an absolute URL; split the string directly.
	rest := decoded
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	return lastSegment(rest)
}

func lastSegment(p string) string {
	parts := strings.Split(p, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(parts[i]); s != "" {
			return s
		}
	}
	return ""
}

// basename handles both slash styles since paths may come from any platform.
func basename(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if p == "." || p == ".." {
		return ""
	}
	return p
}

// downloadStatus applies the status precedence; the first match wins.
func downloadStatus(raw RawDownload) Status {
	switch {
	case raw.Succeeded:
		return StatusCompleted
	case raw.Error != "":
		return StatusFailed
	case raw.Canceled:
		return StatusFailed
	case raw.Stopped, raw.HasPartialData:
		return StatusPaused
	}
	switch raw.State {
	case StatePaused, StateScanning, StateBlockedParental, StateBlockedPolicy,
		StateBlockedSecurity, StateDirty, StateDownloading:
		return StatusPaused
	}
	return StatusUnknown
}

// correctBytes returns the corrected (total, progress) pair.
func correctBytes(status Status, total, progress, finalSize int64) (int64, int64) {
	total = max(total, 0)
	progress = max(progress, 0)

	if status == StatusCompleted && finalSize > total {
		total = finalSize
	}
	if total == 0 && progress > 0 {
		total = progress
	}
	if status == StatusCompleted {
		progress = total
	}
	if total > 0 && progress > total {
		progress = total
	}
	return total, progress
}

func truncateMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).In(t.Location())
}
