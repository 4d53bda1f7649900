package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/mcxwatch/models"
)

var labels = []string{"April 2025", "May 2025", "June 2025"}

func snapshotAt(seq uint64, ts time.Time) *models.Snapshot {
	price := decimal.RequireFromString("2450.5")
	return &models.Snapshot{
		Seq:       seq,
		Timestamp: ts,
		Labels:    labels,
		Items: map[string]models.ExtractionResult{
			"April 2025": {Price: &price, RateChange: "+3.25 (+0.13%)", Status: models.StatusFound, Source: models.SourceDirect},
			"May 2025":   models.NotFound(),
		},
	}
}

func TestStore_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	s := New(path, labels)
	assert.NoFileExists(t, path)

	base := time.Date(2025, time.April, 11, 23, 30, 0, 0, time.UTC)
	const n = 4
	for i := 0; i < n; i++ {
		require.NoError(t, s.Append(snapshotAt(uint64(i+1), base.Add(time.Duration(i)*10*time.Second))))
	}
	assert.FileExists(t, path)

	raw, err := s.Bytes()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, n+1, "one header and one row per append")
	assert.Equal(t,
		"Date,Time,Timestamp,April 2025_Price,April 2025_Rate_Change,May 2025_Price,May 2025_Rate_Change,June 2025_Price,June 2025_Rate_Change",
		lines[0])
	assert.Equal(t,
		"2025-04-11,23:30:00,2025-04-11 23:30:00,2450.5,+3.25 (+0.13%),N/A,N/A,N/A,N/A",
		lines[1])

	recs, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, n)
	for i, r := range recs {
		assert.Equal(t, base.Add(time.Duration(i)*10*time.Second).Format(models.TimestampLayout), r.Timestamp)
		assert.Equal(t, "2450.5", r.Prices["April 2025"])
		assert.Equal(t, "N/A", r.Prices["May 2025"])
		assert.Equal(t, "N/A", r.RateChanges["June 2025"])
	}
}

func TestStore_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	ts := time.Date(2025, time.April, 11, 10, 0, 0, 0, time.UTC)

	require.NoError(t, New(path, labels).Append(snapshotAt(1, ts)))
	// A restarted process reuses the file without a second header.
	require.NoError(t, New(path, labels).Append(snapshotAt(2, ts)))

	recs, err := New(path, labels).ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestStore_RestartWithShiftedLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	ts := time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, New(path, labels).Append(snapshotAt(1, ts)))

	// After the month rolls over the contract window moves by one.
	may := decimal.RequireFromString("111")
	july := decimal.RequireFromString("333")
	shifted := New(path, []string{"May 2025", "June 2025", "July 2025"})
	require.NoError(t, shifted.Append(&models.Snapshot{
		Seq:       2,
		Timestamp: ts.Add(time.Minute),
		Labels:    []string{"May 2025", "June 2025", "July 2025"},
		Items: map[string]models.ExtractionResult{
			"May 2025":  {Price: &may, RateChange: "-5 (-2.1%)", Status: models.StatusFound, Source: models.SourceDirect},
			"July 2025": {Price: &july, RateChange: "+1 (+0.3%)", Status: models.StatusFound, Source: models.SourceDirect},
		},
	}))

	raw, err := shifted.Bytes()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3, "the original header is kept")
	assert.Equal(t, strings.Join(New(path, labels).Header(), ","), lines[0])

	recs, err := shifted.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	last := recs[1]
	assert.Equal(t, "N/A", last.Prices["April 2025"])
	assert.Equal(t, "111", last.Prices["May 2025"])
	assert.Equal(t, "-5 (-2.1%)", last.RateChanges["May 2025"])
	assert.Equal(t, "N/A", last.Prices["June 2025"])
	assert.NotContains(t, last.Prices, "July 2025")
	assert.Equal(t, "2025-05-02 10:01:00", last.Timestamp)
}

func TestStore_MissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.csv"), labels)

	_, err := s.Bytes()
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.ReadAll()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_AppendFailureIsPersistenceError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing-dir", "prices.csv"), labels)

	err := s.Append(snapshotAt(1, time.Now()))

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.False(t, IsFatal(err))
}

func TestIsFatal(t *testing.T) {
	full := persistErr("write history row", &os.PathError{Op: "write", Path: "x", Err: syscall.ENOSPC})

	assert.True(t, IsFatal(full))
	assert.True(t, IsFatal(fmt.Errorf("append: %w", full)))
	assert.False(t, IsFatal(errors.New("boom")))
}
