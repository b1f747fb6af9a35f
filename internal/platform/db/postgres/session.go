package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryer は pgx.Tx および pgxpool.Conn と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Session は 1 単位の処理だけが占有する永続化コンテキストです。
// *pgxpool.Conn はこのインターフェースを満たします。
type Session interface {
	Queryer
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Release()
}

// SessionFactory は Session を払い出します。
type SessionFactory interface {
	Acquire(ctx context.Context) (Session, error)
}

// SessionFactoryFunc は関数を SessionFactory として扱うためのアダプタです。
type SessionFactoryFunc func(ctx context.Context) (Session, error)

// Acquire は f を呼び出します。
func (f SessionFactoryFunc) Acquire(ctx context.Context) (Session, error) {
	return f(ctx)
}

type connAcquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// PoolSessionFactory はコネクションプールから Session を払い出します。
type PoolSessionFactory struct {
	pool connAcquirer
}

// NewPoolSessionFactory は PoolSessionFactory を生成します。
func NewPoolSessionFactory(pool *pgxpool.Pool) *PoolSessionFactory {
	if pool == nil {
		return &PoolSessionFactory{}
	}
	return &PoolSessionFactory{pool: pool}
}

// Acquire はプールからコネクションを 1 本確保します。
func (f *PoolSessionFactory) Acquire(ctx context.Context) (Session, error) {
	if f == nil || f.pool == nil {
		return nil, errors.New("postgres: pool is not configured")
	}
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
