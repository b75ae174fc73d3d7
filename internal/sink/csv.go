package sink

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
	"github.com/urlmon/urlmon/internal/registry"
)

// csvHeader is the fixed column set of every CSV this process writes,
// whether the append log or an on-demand export.
var csvHeader = []string{"URL Name", "URL", "Timestamp", "Status", "Response Time", "Error"}

// CSVHeader returns the export header row.
func CSVHeader() []string {
	out := make([]string, len(csvHeader))
	copy(out, csvHeader)
	return out
}

// CSVRow formats one result as a CSV record. Response time is in seconds.
func CSVRow(target domain.Target, r domain.CheckResult) []string {
	return []string{
		target.Name,
		target.URL,
		r.CheckedAt.Format(time.RFC3339),
		string(r.Outcome),
		strconv.FormatFloat(r.LatencyMS/1000, 'f', -1, 64),
		r.Reason,
	}
}

// CSV appends results to a single growing file. The header row is written
// once, when the file is created; reopening an existing log keeps
// appending below the old rows. There is no eviction: the file is a plain
// append-only log.
type CSV struct {
	reg *registry.Registry

	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

var _ Sink = (*CSV)(nil)

func NewCSV(path string, reg *registry.Registry) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	c := &CSV{reg: reg, file: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := c.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		c.w.Flush()
		if err := c.w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *CSV) Append(_ context.Context, results []domain.CheckResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range results {
		target, err := c.reg.Get(r.TargetName)
		if err != nil {
			// Result for a name we no longer know; skip the row rather
			// than fail the whole batch.
			continue
		}
		if err := c.w.Write(CSVRow(target, r)); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}
