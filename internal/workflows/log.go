package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fieldseal/fieldseal/internal/audit"
	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by user email.
	User string

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Partition filters entries by partition.
	Partition string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrInvalidDateFormat if a date filter is malformed.
// A vault with no audit log yet yields an empty result.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	if _, err := requireVault(); err != nil {
		return nil, err
	}

	logPath := audit.LogPath()
	if logPath == "" {
		return nil, kerrors.ErrVaultNotInitialized
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return &LogResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	entries, err := audit.ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}

	result := &LogResult{
		TotalEntriesBeforeFilter: len(entries),
	}

	if len(entries) == 0 {
		result.Entries = entries
		return result, nil
	}

	filtered := entries

	if opts.User != "" {
		filtered = filterByUser(filtered, opts.User)
	}

	if opts.Operations != "" {
		ops := strings.Split(opts.Operations, ",")
		for i := range ops {
			ops[i] = strings.TrimSpace(ops[i])
		}
		filtered = filterByOperations(filtered, ops)
	}

	if opts.Partition != "" {
		filtered = filterByPartition(filtered, opts.Partition)
	}

	if opts.Since != "" {
		sinceTime, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filtered = filterSince(filtered, sinceTime)
	}

	if opts.Until != "" {
		untilTime, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		// Include the entire day by setting to end of day.
		untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
		filtered = filterUntil(filtered, untilTime)
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			// When reversed, limit takes first N (most recent).
			filtered = filtered[:opts.Limit]
		} else {
			// When not reversed, limit takes last N (most recent).
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

// filterByUser filters entries by user email (case-insensitive).
func filterByUser(entries []audit.Entry, user string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if strings.EqualFold(e.User, user) {
			result = append(result, e)
		}
	}
	return result
}

// filterByOperations filters entries by operation types.
func filterByOperations(entries []audit.Entry, ops []string) []audit.Entry {
	opSet := make(map[string]bool)
	for _, op := range ops {
		opSet[strings.ToLower(op)] = true
	}

	var result []audit.Entry
	for _, e := range entries {
		if opSet[strings.ToLower(e.Operation)] {
			result = append(result, e)
		}
	}
	return result
}

func filterByPartition(entries []audit.Entry, partition string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if e.Partition == partition {
			result = append(result, e)
		}
	}
	return result
}

// filterSince filters entries to only include those at or after the given time.
func filterSince(entries []audit.Entry, since time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, ok := parseTimestamp(e.Timestamp)
		if !ok {
			continue
		}
		if !t.Before(since) {
			result = append(result, e)
		}
	}
	return result
}

// filterUntil filters entries to only include those at or before the given time.
func filterUntil(entries []audit.Entry, until time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, ok := parseTimestamp(e.Timestamp)
		if !ok {
			continue
		}
		if !t.After(until) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02T15:04:05.000000Z", ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDate formats a timestamp string to YYYY-MM-DD format for display.
func FormatDate(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	return t.Format("2006-01-02")
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS for display.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails renders an entry's operation-specific fields for display.
func FormatDetails(e audit.Entry) string {
	var parts []string
	if e.Partition != "" {
		parts = append(parts, "partition="+e.Partition)
	}
	if e.TargetUser != "" {
		parts = append(parts, "target="+e.TargetUser)
	}
	if len(e.Files) > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s)", len(e.Files)))
	} else if e.FilesCount > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s)", e.FilesCount))
	}
	if e.OutputPath != "" {
		parts = append(parts, "output="+e.OutputPath)
	}
	if e.VaultName != "" {
		parts = append(parts, "vault="+e.VaultName)
	}
	return strings.Join(parts, " ")
}

// FormatDetailsOneline renders a compact form of an entry's details.
func FormatDetailsOneline(e audit.Entry) string {
	switch {
	case e.TargetUser != "":
		return e.Partition + " " + e.TargetUser
	case e.Partition != "":
		return e.Partition
	case len(e.Files) > 0:
		return fmt.Sprintf("%d file(s)", len(e.Files))
	case e.VaultName != "":
		return e.VaultName
	default:
		return ""
	}
}
