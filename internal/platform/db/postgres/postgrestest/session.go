// Package postgrestest は pgxmock を用いた SessionFactory のテスト用実装を提供します。
package postgrestest

import (
	"context"
	"sync"
	"testing"

	"github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// SessionFactory は単一の pgxmock コネクションを Session として払い出します。
// 確保と解放の回数を記録します。
type SessionFactory struct {
	Mock pgxmock.PgxConnIface

	mu         sync.Mutex
	acquireErr error
	acquired   int
	released   int
}

// NewSessionFactory は pgxmock コネクションを生成し、テスト終了時に期待値の検証とクローズを行います。
func NewSessionFactory(t testing.TB) *SessionFactory {
	t.Helper()

	mock, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("failed to create mock conn: %v", err)
	}
	t.Cleanup(func() {
		_ = mock.Close(context.Background())
	})

	return &SessionFactory{Mock: mock}
}

// FailAcquire は以降の Acquire を err で失敗させます。
func (f *SessionFactory) FailAcquire(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquireErr = err
}

// Acquire は postgres.SessionFactory を実装します。
func (f *SessionFactory) Acquire(context.Context) (postgres.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &session{PgxConnIface: f.Mock, factory: f}, nil
}

// Acquired は確保された Session の数を返します。
func (f *SessionFactory) Acquired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired
}

// Released は解放された Session の数を返します。
func (f *SessionFactory) Released() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// AssertBalanced は確保数と解放数が want と一致し、すべての期待値が満たされたことを検証します。
func (f *SessionFactory) AssertBalanced(t testing.TB, want int) {
	t.Helper()

	if got := f.Acquired(); got != want {
		t.Errorf("expected %d acquired sessions, got %d", want, got)
	}
	if got := f.Released(); got != want {
		t.Errorf("expected %d released sessions, got %d", want, got)
	}
	if err := f.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

type session struct {
	pgxmock.PgxConnIface
	factory *SessionFactory
}

func (s *session) Release() {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	s.factory.released++
}
