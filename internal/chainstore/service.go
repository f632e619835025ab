// Package chainstore serves historical header and transaction lookups from
// the relational index. Lookups by primary key are immutable and cached.
package chainstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/chainscan/internal/pkg/types"

	lru "github.com/hashicorp/golang-lru"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned by every lookup when no store is configured.
	ErrUnavailable = errors.New("chain store unavailable")
)

// Storage is the relational index.
type Storage interface {
	LatestHeader(ctx context.Context) (Header, error)
	HeaderByHash(ctx context.Context, hash types.Hex) (Header, error)
	ChainStats(ctx context.Context) (ChainStats, error)

	LatestTransaction(ctx context.Context) (Transaction, error)
	// TransactionByID returns the transaction with its outputs.
	TransactionByID(ctx context.Context, id types.Hex) (Transaction, error)
	TransactionStats(ctx context.Context) (TransactionStats, error)
}

// Service exposes the lookups of the HTTP API.
type Service interface {
	Storage
}

type config struct {
	cacheSize int
}

// Option configures the Service.
type Option func(*config)

// WithCacheSize sets how many lookups by key are kept. Default: 1024.
func WithCacheSize(n int) Option {
	return func(c *config) {
		c.cacheSize = n
	}
}

type service struct {
	storage Storage
	headers *lru.Cache
	txs     *lru.Cache
}

var _ Service = (*service)(nil)

// New wraps storage with the lookup cache.
func New(storage Storage, opts ...Option) (*service, error) {
	cfg := config{cacheSize: 1024}
	for _, opt := range opts {
		opt(&cfg)
	}

	headers, err := lru.New(cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("header cache: %w", err)
	}
	txs, err := lru.New(cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("transaction cache: %w", err)
	}

	return &service{
		storage: storage,
		headers: headers,
		txs:     txs,
	}, nil
}

func (s *service) LatestHeader(ctx context.Context) (Header, error) {
	return s.storage.LatestHeader(ctx)
}

func (s *service) HeaderByHash(ctx context.Context, hash types.Hex) (Header, error) {
	key := hash.String()
	if v, ok := s.headers.Get(key); ok {
		return v.(Header), nil
	}

	h, err := s.storage.HeaderByHash(ctx, hash)
	if err != nil {
		return Header{}, err
	}

	s.headers.Add(key, h)
	return h, nil
}

func (s *service) ChainStats(ctx context.Context) (ChainStats, error) {
	return s.storage.ChainStats(ctx)
}

func (s *service) LatestTransaction(ctx context.Context) (Transaction, error) {
	return s.storage.LatestTransaction(ctx)
}

func (s *service) TransactionByID(ctx context.Context, id types.Hex) (Transaction, error) {
	key := id.String()
	if v, ok := s.txs.Get(key); ok {
		return v.(Transaction), nil
	}

	tx, err := s.storage.TransactionByID(ctx, id)
	if err != nil {
		return Transaction{}, err
	}

	s.txs.Add(key, tx)
	return tx, nil
}

func (s *service) TransactionStats(ctx context.Context) (TransactionStats, error) {
	return s.storage.TransactionStats(ctx)
}

type unavailable struct{}

// Unavailable returns a Service failing every lookup with ErrUnavailable,
// used when no database is configured.
func Unavailable() Service {
	return unavailable{}
}

func (unavailable) LatestHeader(context.Context) (Header, error) { return Header{}, ErrUnavailable }

func (unavailable) HeaderByHash(context.Context, types.Hex) (Header, error) {
	return Header{}, ErrUnavailable
}

func (unavailable) ChainStats(context.Context) (ChainStats, error) { return ChainStats{}, ErrUnavailable }

func (unavailable) LatestTransaction(context.Context) (Transaction, error) {
	return Transaction{}, ErrUnavailable
}

func (unavailable) TransactionByID(context.Context, types.Hex) (Transaction, error) {
	return Transaction{}, ErrUnavailable
}

func (unavailable) TransactionStats(context.Context) (TransactionStats, error) {
	return TransactionStats{}, ErrUnavailable
}
