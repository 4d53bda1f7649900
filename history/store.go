// Package history keeps the append-only CSV record of every cycle.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/use-agent/mcxwatch/models"
)

// Column suffixes for per-contract columns.
const (
	priceSuffix = "_Price"
	rateSuffix  = "_Rate_Change"
)

// Record is one parsed history row.
type Record struct {
	Date      string
	Time      string
	Timestamp string

	// Prices and RateChanges are keyed by contract label. Values are kept as
	// written, including "N/A".
	Prices      map[string]string
	RateChanges map[string]string
}

// Store appends snapshot rows to a CSV file. Appends and reads are
// serialized; rows are never rewritten.
type Store struct {
	path   string
	labels []string
	mu     sync.Mutex
	warned bool
}

// New returns a Store writing to path with one price and one rate column per
// label, in label order.
func New(path string, labels []string) *Store {
	return &Store{path: path, labels: append([]string(nil), labels...)}
}

// Path returns the CSV file path.
func (s *Store) Path() string {
	return s.path
}

// Header returns the column names written to a new file.
func (s *Store) Header() []string {
	h := make([]string, 0, 3+2*len(s.labels))
	h = append(h, "Date", "Time", "Timestamp")
	for _, l := range s.labels {
		h = append(h, l+priceSuffix, l+rateSuffix)
	}
	return h
}

// Append writes one row for snap, creating the file with a header first when
// it is missing or empty. An existing file keeps its own header: the row is
// laid out by that header's columns, labels the file has no column for are
// dropped and columns the snapshot does not cover are written as N/A.
func (s *Store) Append(snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return persistErr("open history file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return persistErr("stat history file", err)
	}

	header := s.Header()
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return persistErr("write history header", err)
		}
	} else {
		existing, err := csv.NewReader(f).Read()
		if err != nil {
			return persistErr("read history header", err)
		}
		if !slices.Equal(existing, header) && !s.warned {
			slog.Warn("history header differs from contract labels; writing by existing columns",
				"path", s.path, "columns", existing)
			s.warned = true
		}
		header = existing
	}
	if err := w.Write(row(header, snap)); err != nil {
		return persistErr("write history row", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return persistErr("flush history row", err)
	}
	if err := f.Sync(); err != nil {
		return persistErr("sync history file", err)
	}
	return nil
}

// row lays snap out under header's columns.
func row(header []string, snap *models.Snapshot) []string {
	r := make([]string, len(header))
	for i, col := range header {
		switch {
		case col == "Date":
			r[i] = snap.Timestamp.Format(models.DateLayout)
		case col == "Time":
			r[i] = snap.Timestamp.Format(models.TimeLayout)
		case col == "Timestamp":
			r[i] = snap.Timestamp.Format(models.TimestampLayout)
		case strings.HasSuffix(col, rateSuffix):
			r[i] = models.NotAvailable
			if item, ok := snap.Items[strings.TrimSuffix(col, rateSuffix)]; ok && item.RateChange != "" {
				r[i] = item.RateChange
			}
		case strings.HasSuffix(col, priceSuffix):
			r[i] = models.NotAvailable
			if item, ok := snap.Items[strings.TrimSuffix(col, priceSuffix)]; ok {
				r[i] = item.PriceString()
			}
		default:
			r[i] = models.NotAvailable
		}
	}
	return r
}

// Bytes returns the whole file as written. A missing file yields an error
// matching os.ErrNotExist.
func (s *Store) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.ReadFile(s.path)
}

// ReadAll parses every row using the file's header.
func (s *Store) ReadAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read header: %w", err)
	}

	var out []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("history: read row %d: %w", len(out)+1, err)
		}
		out = append(out, parseRow(header, row))
	}
}

func parseRow(header, row []string) Record {
	rec := Record{
		Prices:      make(map[string]string),
		RateChanges: make(map[string]string),
	}
	for i, col := range header {
		if i >= len(row) {
			break
		}
		v := row[i]
		switch {
		case col == "Date":
			rec.Date = v
		case col == "Time":
			rec.Time = v
		case col == "Timestamp":
			rec.Timestamp = v
		case strings.HasSuffix(col, rateSuffix):
			rec.RateChanges[strings.TrimSuffix(col, rateSuffix)] = v
		case strings.HasSuffix(col, priceSuffix):
			rec.Prices[strings.TrimSuffix(col, priceSuffix)] = v
		}
	}
	return rec
}

// IsFatal reports whether err means further appends cannot succeed.
func IsFatal(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

func persistErr(msg string, err error) error {
	return models.NewExtractError(models.ErrCodePersistence, msg, err)
}
