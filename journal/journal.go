// Package journal keeps a tamper-evident, append-only copy of every accepted
// time entry. Each record chains the SHA-256 of its predecessor, so a
// rewritten audit row in the relational store can be detected by replaying
// the chain.
package journal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/attendly/timeclock/repository/models"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
)

var (
	keyHead     = []byte("journal_head")
	keyLastHash = []byte("journal_last_hash")
)

// Record is one link of the journal chain.
type Record struct {
	Seq      uint64           `json:"seq"`
	Entry    models.TimeEntry `json:"entry"`
	PrevHash string           `json:"prev_hash"`
	Hash     string           `json:"hash"`
}

// Journal is a BadgerDB-backed append-only log.
type Journal struct {
	db     *badger.DB
	logger cmtlog.Logger
	mu     sync.Mutex
}

func Open(dir string, logger cmtlog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}
	return &Journal{db: db, logger: logger}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append chains the entry onto the journal. Safe for concurrent use.
func (j *Journal) Append(entry *models.TimeEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.db.Update(func(txn *badger.Txn) error {
		seq, err := readUint64(txn, keyHead)
		if err != nil {
			return err
		}
		prevHash, err := readString(txn, keyLastHash)
		if err != nil {
			return err
		}

		rec := Record{
			Seq:      seq + 1,
			Entry:    *entry,
			PrevHash: prevHash,
		}
		rec.Hash = chainHash(prevHash, &rec.Entry)

		recBytes, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := txn.Set(recordKey(rec.Seq), recBytes); err != nil {
			return err
		}
		if err := txn.Set(keyHead, uint64ToBytes(rec.Seq)); err != nil {
			return err
		}
		return txn.Set(keyLastHash, []byte(rec.Hash))
	})
}

// Height returns the sequence number of the newest record.
func (j *Journal) Height() (uint64, error) {
	var height uint64
	err := j.db.View(func(txn *badger.Txn) error {
		h, err := readUint64(txn, keyHead)
		height = h
		return err
	})
	return height, err
}

// Verify replays the chain and returns the sequence of the first broken
// link, or 0 when the chain is intact.
func (j *Journal) Verify() (uint64, error) {
	var broken uint64
	err := j.db.View(func(txn *badger.Txn) error {
		head, err := readUint64(txn, keyHead)
		if err != nil {
			return err
		}

		prevHash := ""
		for seq := uint64(1); seq <= head; seq++ {
			item, err := txn.Get(recordKey(seq))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					broken = seq
					return nil
				}
				return err
			}

			var rec Record
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}

			if rec.PrevHash != prevHash || rec.Hash != chainHash(prevHash, &rec.Entry) {
				broken = seq
				return nil
			}
			prevHash = rec.Hash
		}
		return nil
	})
	return broken, err
}

func chainHash(prevHash string, entry *models.TimeEntry) string {
	entryBytes, _ := json.Marshal(entry)
	hash := sha256.Sum256(append([]byte(prevHash), entryBytes...))
	return hex.EncodeToString(hash[:])
}

func recordKey(seq uint64) []byte {
	return fmt.Appendf(nil, "rec:%016d", seq)
}

func readUint64(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var out uint64
	err = item.Value(func(val []byte) error {
		out = bytesToUint64(val)
		return nil
	})
	return out, err
}

func readString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	var out string
	err = item.Value(func(val []byte) error {
		out = string(val)
		return nil
	})
	return out, err
}

func uint64ToBytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesToUint64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
