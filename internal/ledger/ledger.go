// Package ledger persists the trade ledger: an ordered collection of trade
// records serialized as a whole JSON document on every mutation. The ledger
// is the source of truth for whether a trade is currently ACTIVE.
package ledger

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
)

// Ledger stores trade records in a single JSON file. Every mutation is a
// read-modify-write of the whole collection, serialized by an internal
// mutex. The file format is not safe against writers in other processes.
type Ledger struct {
	mu   sync.Mutex
	path string
}

// New creates a ledger backed by the JSON file at path. The file is created
// lazily on the first write.
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Load returns all trade records in insertion order. A missing file is an
// empty ledger, not an error.
func (l *Ledger) Load() ([]types.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load()
}

func (l *Ledger) load() ([]types.TradeRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.TradeRecord{}, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeLedgerReadFailed, err, "failed to read ledger file %s", l.path)
	}

	var records []types.TradeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeLedgerReadFailed, err, "failed to parse ledger file %s", l.path)
	}

	return records, nil
}

func (l *Ledger) write(records []types.TradeRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to serialize ledger", err)
	}

	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to write ledger file %s", l.path)
	}

	return nil
}

// Append adds a record to the end of the ledger.
func (l *Ledger) Append(record types.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}

	records = append(records, record)

	return l.write(records)
}

// HasActiveTrade reports whether any record in the ledger is ACTIVE,
// regardless of symbol.
func (l *Ledger) HasActiveTrade() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return false, err
	}

	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Status == types.TradeStatusActive {
			return true, nil
		}
	}

	return false, nil
}

// ActiveRecords returns all records currently marked ACTIVE, in insertion
// order.
func (l *Ledger) ActiveRecords() ([]types.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return nil, err
	}

	active := make([]types.TradeRecord, 0)

	for _, r := range records {
		if r.Status == types.TradeStatusActive {
			active = append(active, r)
		}
	}

	return active, nil
}

// MarkClosed transitions the most recent ACTIVE entry record for the symbol
// to CLOSED with the given exit reason. The scan runs most-recent-first so
// the last written record wins on ambiguity. Returns false without error if
// no matching ACTIVE record exists - a second close attempt is a no-op.
func (l *Ledger) MarkClosed(symbol string, reason types.ExitReason, exitTime time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return false, err
	}

	for i := len(records) - 1; i >= 0; i-- {
		r := &records[i]
		if r.Symbol != symbol || r.Status != types.TradeStatusActive || r.Action != types.TradeActionBuy {
			continue
		}

		r.Status = types.TradeStatusClosed
		t := exitTime
		r.ExitTime = &t
		r.ExitReason = reason

		if err := l.write(records); err != nil {
			return false, err
		}

		return true, nil
	}

	return false, nil
}
