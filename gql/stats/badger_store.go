package stats

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Key layout: one key space per statistic kind. Counts are big-endian
// uint64; selectivities are float64 bits. The version key changes on
// every write so SnapshotID tracks the store's state.
const (
	keyNodeCount  = "s:nodes"
	keyVersion    = "s:version"
	prefixLabel   = "l:"
	prefixRelType = "r:"
	prefixIndex   = "i:"
)

// BadgerStore is a Provider persisted in BadgerDB. Writes come from an
// out-of-band ingest path (or the CLI); planning sessions only read.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a statistics store at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open statistics store")
	}
	return &BadgerStore{db: db}, nil
}

// OpenInMemoryBadgerStore opens a store that never touches disk, for
// tests.
func OpenInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory statistics store")
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) setUint(key string, n uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], n)
		if err := txn.Set([]byte(key), buf[:]); err != nil {
			return err
		}
		return bumpVersion(txn)
	})
}

func (s *BadgerStore) getUint(key string) uint64 {
	var n uint64
	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	return n
}

func bumpVersion(txn *badger.Txn) error {
	var version uint64
	item, err := txn.Get([]byte(keyVersion))
	if err == nil {
		_ = item.Value(func(val []byte) error {
			version = binary.BigEndian.Uint64(val)
			return nil
		})
	} else if err != badger.ErrKeyNotFound {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], version+1)
	return txn.Set([]byte(keyVersion), buf[:])
}

// SetNodeCount persists the total node count.
func (s *BadgerStore) SetNodeCount(n uint64) error {
	return s.setUint(keyNodeCount, n)
}

// SetLabelCount persists the node count for a label.
func (s *BadgerStore) SetLabelCount(label string, n uint64) error {
	return s.setUint(prefixLabel+label, n)
}

// SetRelationshipCount persists the relationship count for a type.
func (s *BadgerStore) SetRelationshipCount(relType string, n uint64) error {
	return s.setUint(prefixRelType+relType, n)
}

// SetIndex persists an index declaration with its selectivity.
func (s *BadgerStore) SetIndex(label, property string, selectivity float64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(selectivity))
		if err := txn.Set([]byte(prefixIndex+indexKey(label, property)), buf[:]); err != nil {
			return err
		}
		return bumpVersion(txn)
	})
}

func (s *BadgerStore) NodeCount() float64 {
	return float64(s.getUint(keyNodeCount))
}

func (s *BadgerStore) NodesWithLabel(label string) float64 {
	return float64(s.getUint(prefixLabel + label))
}

func (s *BadgerStore) RelationshipCount(relType string) float64 {
	if relType != "" {
		return float64(s.getUint(prefixRelType + relType))
	}
	var total uint64
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRelType)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			_ = it.Item().Value(func(val []byte) error {
				total += binary.BigEndian.Uint64(val)
				return nil
			})
		}
		return nil
	})
	return float64(total)
}

func (s *BadgerStore) IndexExists(label, property string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixIndex + indexKey(label, property)))
		return err
	})
	return err == nil
}

func (s *BadgerStore) IndexSelectivity(label, property string) float64 {
	var sel float64
	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixIndex + indexKey(label, property)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sel = math.Float64frombits(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	return sel
}

func (s *BadgerStore) SnapshotID() string {
	return "badger-v" + strconv.FormatUint(s.getUint(keyVersion), 10)
}

// Labels returns every label with a recorded count, for diagnostics.
func (s *BadgerStore) Labels() map[string]float64 {
	out := make(map[string]float64)
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixLabel)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			label := strings.TrimPrefix(string(item.Key()), prefixLabel)
			_ = item.Value(func(val []byte) error {
				out[label] = float64(binary.BigEndian.Uint64(val))
				return nil
			})
		}
		return nil
	})
	return out
}
