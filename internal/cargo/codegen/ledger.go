package codegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "cargo:code:"

// RedisLedger reserves codes with SETNX, shared by every server instance.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLedger(rdb *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, ttl: ttl}
}

func (l *RedisLedger) Reserve(ctx context.Context, code string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, ledgerKeyPrefix+code, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// BadgerLedger keeps reservations in an embedded store, for the CLI.
type BadgerLedger struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerLedger opens path, or an in-memory store when path is empty.
func OpenBadgerLedger(path string, ttl time.Duration) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}
	return &BadgerLedger{db: db, ttl: ttl}, nil
}

func (l *BadgerLedger) Reserve(_ context.Context, code string) (bool, error) {
	key := []byte(ledgerKeyPrefix + code)
	reserved := false
	err := l.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		e := badger.NewEntry(key, []byte(time.Now().UTC().Format(time.RFC3339)))
		if l.ttl > 0 {
			e = e.WithTTL(l.ttl)
		}
		if err := txn.SetEntry(e); err != nil {
			return err
		}
		reserved = true
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger reserve: %w", err)
	}
	return reserved, nil
}

func (l *BadgerLedger) Close() error {
	return l.db.Close()
}
