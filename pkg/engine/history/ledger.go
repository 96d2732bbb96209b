// Package history keeps a JSON-lines ledger of analysis runs.
package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/config"
	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
)

// Snapshot represents one analysis run.
type Snapshot struct {
	Timestamp   int64    `json:"timestamp"`
	Source      string   `json:"source"`
	Records     int      `json:"records"`
	Eligible    int      `json:"eligible"`
	Issues      int      `json:"issues"`
	Violations  int      `json:"violations"`
	MeanGapDays *float64 `json:"mean_gap_days,omitempty"`
	MaxGapDays  int      `json:"max_gap_days"`
	// Clients is the number of clients with at least one violation.
	Clients int `json:"clients"`
}

// NewSnapshot captures a run summary.
func NewSnapshot(at time.Time, source string, records, eligible, issues int, s fifo.Summary) Snapshot {
	return Snapshot{
		Timestamp:   at.Unix(),
		Source:      source,
		Records:     records,
		Eligible:    eligible,
		Issues:      issues,
		Violations:  s.Total,
		MeanGapDays: s.MeanGapDays,
		MaxGapDays:  s.MaxGapDays,
		Clients:     len(s.ByClient),
	}
}

// Time returns the snapshot timestamp.
func (s Snapshot) Time() time.Time { return time.Unix(s.Timestamp, 0).UTC() }

// Backend defines the storage interface for snapshots.
type Backend interface {
	Append(ctx context.Context, s Snapshot) error
	// Load returns up to the n most recent snapshots, oldest first.
	Load(ctx context.Context, n int) ([]Snapshot, error)
}

// Client manages historical state.
type Client struct {
	backend Backend
}

// NewClient initializes a history client.
// Defaults to FileBackend.
func NewClient(backend Backend) *Client {
	if backend == nil {
		backend = &FileBackend{}
	}
	return &Client{backend: backend}
}

// Record appends s and returns its trend against the previous run of the
// same source. The ledger is shared by all sources.
func (c *Client) Record(ctx context.Context, s Snapshot) (Trend, error) {
	all, err := c.backend.Load(ctx, 0)
	if err != nil {
		return Trend{}, err
	}
	if err := c.backend.Append(ctx, s); err != nil {
		return Trend{}, err
	}
	return Compare(lastOf(all, s.Source), s), nil
}

// lastOf returns the most recent snapshot of source, or nil.
func lastOf(history []Snapshot, source string) *Snapshot {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Source == source {
			prev := history[i]
			return &prev
		}
	}
	return nil
}

// LoadWindow retrieves the last n snapshots.
func (c *Client) LoadWindow(ctx context.Context, n int) ([]Snapshot, error) {
	return c.backend.Load(ctx, n)
}

// NewLocalBackend creates a file-based backend at the specified path.
func NewLocalBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// FileBackend implements local filesystem storage.
type FileBackend struct {
	Path string
}

func (b *FileBackend) path() (string, error) {
	if b.Path != "" {
		return b.Path, nil
	}
	return GetLedgerPath()
}

func (b *FileBackend) Append(ctx context.Context, s Snapshot) error {
	path, err := b.path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

func (b *FileBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	path, err := b.path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data, n)
}

// decode parses ledger lines, skipping any that are not valid snapshots.
func decode(data []byte, n int) ([]Snapshot, error) {
	history := []Snapshot{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var s Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			continue
		}
		history = append(history, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n > 0 && len(history) > n {
		return history[len(history)-n:], nil
	}
	return history, nil
}

func encode(history []Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range history {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// GetLedgerPath provides the default local storage path.
func GetLedgerPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, filepath.FromSlash(config.DefaultHistoryPath)), nil
}
