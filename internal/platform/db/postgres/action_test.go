package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	"github.com/ogurasousui/org-directory/internal/platform/db/postgres/postgrestest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type subject struct {
	ID int64
}

func TestAction_ExecuteReleasesSession(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	action := postgres.Wrap[*subject, int64](factory, &subject{ID: 7})

	got, err := action.Execute(context.Background(), func(_ context.Context, q postgres.Queryer, entity *subject) (int64, error) {
		if q == nil {
			t.Fatalf("queryer not provided")
		}
		return entity.ID, nil
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_ExecuteReleasesSessionOnError(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	action := postgres.Wrap[*subject, int64](factory, &subject{})

	expectedErr := errors.New("query failed")
	_, err := action.Execute(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
		return 0, expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_ExecuteLimitedPassesLimit(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)

	unbounded := postgres.Wrap[*subject, int](factory, &subject{})
	if unbounded.Limit() != postgres.NoLimit {
		t.Fatalf("expected default limit NoLimit, got %d", unbounded.Limit())
	}

	limited := postgres.Wrap[*subject, int](factory, &subject{}, postgres.WithLimit(25))
	got, err := limited.ExecuteLimited(context.Background(), func(_ context.Context, _ postgres.Queryer, _ *subject, limit int) (int, error) {
		return limit, nil
	})
	if err != nil {
		t.Fatalf("ExecuteLimited returned error: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected limit 25, got %d", got)
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_AcquireFailurePropagates(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	acquireErr := errors.New("pool exhausted")
	factory.FailAcquire(acquireErr)

	called := false
	action := postgres.Wrap[*subject, int64](factory, &subject{})
	_, err := action.ExecuteWithTransaction(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, acquireErr) {
		t.Fatalf("expected %v, got %v", acquireErr, err)
	}
	if called {
		t.Fatal("operation must not run without a session")
	}

	factory.AssertBalanced(t, 0)
}

func TestAction_MissingSessionRejected(t *testing.T) {
	t.Parallel()

	empty := postgres.SessionFactoryFunc(func(context.Context) (postgres.Session, error) {
		return nil, nil
	})

	for name, factory := range map[string]postgres.SessionFactory{
		"nil factory": nil,
		"nil session": empty,
		"unset pool":  postgres.NewPoolSessionFactory(nil),
	} {
		action := postgres.Wrap[*subject, int64](factory, &subject{})
		_, err := action.Execute(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
			t.Fatalf("%s: operation must not run", name)
			return 0, nil
		})
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestAction_NilOperationRejected(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	action := postgres.Wrap[*subject, int64](factory, &subject{})

	if _, err := action.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil operation")
	}
	if _, err := action.ExecuteWithTransaction(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil operation")
	}

	factory.AssertBalanced(t, 0)
}

func TestAction_ExecuteWithTransactionCommits(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	factory.Mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	factory.Mock.ExpectCommit()

	action := postgres.Wrap[*subject, int64](factory, &subject{ID: 3})
	got, err := action.ExecuteWithTransaction(context.Background(), func(_ context.Context, _ postgres.Queryer, entity *subject) (int64, error) {
		return entity.ID * 2, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithTransaction returned error: %v", err)
	}
	if got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_ExecuteWithTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	factory.Mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	factory.Mock.ExpectRollback()

	expectedErr := errors.New("usecase error")
	action := postgres.Wrap[*subject, int64](factory, &subject{})
	_, err := action.ExecuteWithTransaction(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
		return 0, expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_RollbackFailureIsNotSwallowed(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)

	factory := postgrestest.NewSessionFactory(t)
	rbErr := errors.New("connection reset")
	factory.Mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	factory.Mock.ExpectRollback().WillReturnError(rbErr)

	opErr := errors.New("usecase error")
	action := postgres.Wrap[*subject, int64](factory, &subject{}, postgres.WithLogger(zap.New(core)))
	_, err := action.ExecuteWithTransaction(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
		return 0, opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("expected operation error in %v", err)
	}
	if !errors.Is(err, rbErr) {
		t.Fatalf("expected rollback error in %v", err)
	}
	if logs.FilterMessage("rollback failed").Len() != 1 {
		t.Fatalf("expected rollback failure to be logged, got %v", logs.All())
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_BeginFailureReleasesSession(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	beginErr := errors.New("begin refused")
	factory.Mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite}).WillReturnError(beginErr)

	action := postgres.Wrap[*subject, int64](factory, &subject{})
	_, err := action.ExecuteWithTransaction(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
		t.Fatal("operation must not run when begin fails")
		return 0, nil
	})
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected %v, got %v", beginErr, err)
	}

	factory.AssertBalanced(t, 1)
}

func TestAction_CommitFailureReturnsError(t *testing.T) {
	t.Parallel()

	factory := postgrestest.NewSessionFactory(t)
	commitErr := errors.New("serialization failure")
	factory.Mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	factory.Mock.ExpectCommit().WillReturnError(commitErr)
	factory.Mock.ExpectRollback()

	action := postgres.Wrap[*subject, int64](factory, &subject{})
	_, err := action.ExecuteWithTransaction(context.Background(), func(context.Context, postgres.Queryer, *subject) (int64, error) {
		return 1, nil
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected %v, got %v", commitErr, err)
	}

	factory.AssertBalanced(t, 1)
}
