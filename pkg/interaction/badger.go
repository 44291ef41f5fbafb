package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var _ Store = (*Badger)(nil)

// Key layout:
//
//	ix:{ts_ns zero-padded to 20 digits}:{id} → msgpack-encoded Interaction
//	id:{id}                                  → ix key (reverse index)
//
// Lexicographic order of ix keys matches chronological order, so List is a
// reverse prefix scan.
var (
	recordPrefix = []byte("ix:")
	idPrefix     = []byte("id:")
)

func recordKey(tsNano int64, id string) []byte {
	return fmt.Appendf(nil, "%s%020d:%s", recordPrefix, tsNano, id)
}

func idKey(id string) []byte {
	return append(append([]byte(nil), idPrefix...), id...)
}

// Badger persists interactions in a BadgerDB database.
type Badger struct {
	db   *badger.DB
	opts *Options
}

// BadgerOptions configures NewBadger.
type BadgerOptions struct {
	Options *Options

	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// NewBadger opens (or creates) a BadgerDB-backed store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("interaction: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(bopts.Dir)
	if bopts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := bopts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger.With("component", "badger")})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("interaction: open badger: %w", err)
	}
	return &Badger{db: db, opts: bopts.Options}, nil
}

func (b *Badger) Allocate(_ context.Context, text string) (string, error) {
	it := &Interaction{
		ID:        b.opts.newID(),
		Text:      text,
		IsLoading: true,
		Timestamp: b.opts.now(),
	}
	data, err := msgpack.Marshal(it)
	if err != nil {
		return "", err
	}
	rk := recordKey(it.Timestamp.UnixNano(), it.ID)
	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(rk, data); err != nil {
			return err
		}
		return txn.Set(idKey(it.ID), rk)
	})
	if err != nil {
		return "", err
	}
	return it.ID, nil
}

func (b *Badger) Merge(_ context.Context, id string, p Patch) error {
	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		rk, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(rk)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var it Interaction
		if err := item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &it)
		}); err != nil {
			return err
		}
		p.Apply(&it)
		data, err := msgpack.Marshal(&it)
		if err != nil {
			return err
		}
		return txn.Set(rk, data)
	})
}

func (b *Badger) List(_ context.Context) ([]*Interaction, error) {
	var out []*Interaction
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Reverse = true
		iterOpts.Prefix = recordPrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		seek := append(append([]byte(nil), recordPrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(recordPrefix); it.Next() {
			var rec Interaction
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's logs to slog, dropping info and debug.
type badgerLogger struct{ l *slog.Logger }

func (g badgerLogger) Errorf(f string, v ...any)   { g.l.Error(fmt.Sprintf(f, v...)) }
func (g badgerLogger) Warningf(f string, v ...any) { g.l.Warn(fmt.Sprintf(f, v...)) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}
