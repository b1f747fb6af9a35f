package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/org-directory/internal/core/store"
	pgdb "github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	applog "github.com/ogurasousui/org-directory/internal/platform/logger"
	"go.uber.org/zap"
)

var (
	errNotFound        = errors.New("postgres: entity not found")
	errInvalidArgument = errors.New("postgres: invalid argument")
)

// cloner はストアが扱えるエンティティの制約です。
type cloner[V any] interface {
	comparable
	Clone() V
}

// mapping はエンティティ種別ごとの SQL と変換処理です。
type mapping[V any] struct {
	name       string
	selectAll  string
	selectByID string
	deleteByID string
	scan       func(row pgx.Row) (V, error)
	insert     func(ctx context.Context, q pgdb.Queryer, entity V) (int64, error)
	merge      func(ctx context.Context, q pgdb.Queryer, entity V) error
	id         func(entity V) int64
	setID      func(entity V, id int64)
}

// entityStore は mapping に従って store.Store を実装します。
type entityStore[V cloner[V]] struct {
	factory pgdb.SessionFactory
	m       mapping[V]
	logger  *zap.Logger
}

func newEntityStore[V cloner[V]](factory pgdb.SessionFactory, m mapping[V], logger *zap.Logger) *entityStore[V] {
	return &entityStore[V]{
		factory: factory,
		m:       m,
		logger:  applog.OrNop(logger).With(zap.String("entity", m.name)),
	}
}

// FindAll は件数制限なしで全件を取得します。
func (s *entityStore[V]) FindAll(ctx context.Context) ([]V, error) {
	s.logger.Info("search for all entities (without limits)")

	var blank V
	items, err := pgdb.Wrap[V, []V](s.factory, blank, pgdb.WithLimit(pgdb.NoLimit), pgdb.WithLogger(s.logger)).
		ExecuteLimited(ctx, func(ctx context.Context, q pgdb.Queryer, _ V, limit int) ([]V, error) {
			return s.list(ctx, q, 0, limit)
		})
	if err != nil {
		return nil, s.absent("find all", err)
	}
	return items, nil
}

// FindPage は offset 件目から最大 length 件を取得します。
func (s *entityStore[V]) FindPage(ctx context.Context, offset, length int) ([]V, error) {
	if offset < 0 || length < 0 {
		return nil, s.absent("find page", fmt.Errorf("offset %d, length %d: %w", offset, length, errInvalidArgument))
	}

	s.logger.Info("search for all entities (with limits)", zap.Int("offset", offset), zap.Int("length", length))

	var blank V
	items, err := pgdb.Wrap[V, []V](s.factory, blank, pgdb.WithLimit(length), pgdb.WithLogger(s.logger)).
		ExecuteLimited(ctx, func(ctx context.Context, q pgdb.Queryer, _ V, limit int) ([]V, error) {
			return s.list(ctx, q, offset, limit)
		})
	if err != nil {
		return nil, s.absent("find page", err)
	}
	return items, nil
}

// Find は ID でエンティティを取得します。
func (s *entityStore[V]) Find(ctx context.Context, id int64) (V, error) {
	var zero V
	if id < 0 {
		return zero, s.absent("find", fmt.Errorf("id %d: %w", id, errInvalidArgument))
	}

	s.logger.Info("search for single entity", zap.Int64("id", id))

	found, err := pgdb.Wrap[V, V](s.factory, zero, pgdb.WithLogger(s.logger)).
		Execute(ctx, func(ctx context.Context, q pgdb.Queryer, _ V) (V, error) {
			return s.findByID(ctx, q, id)
		})
	if err != nil {
		return zero, s.absent("find", err)
	}
	return found, nil
}

// Remove は ID でエンティティを削除し、削除前のスナップショットを返します。
func (s *entityStore[V]) Remove(ctx context.Context, id int64) (V, error) {
	var zero V
	if id < 0 {
		return zero, s.absent("remove", fmt.Errorf("id %d: %w", id, errInvalidArgument))
	}

	s.logger.Info("remove single entity", zap.Int64("id", id))

	removed, err := pgdb.Wrap[V, V](s.factory, zero, pgdb.WithLogger(s.logger)).
		ExecuteWithTransaction(ctx, func(ctx context.Context, q pgdb.Queryer, _ V) (V, error) {
			found, err := s.findByID(ctx, q, id)
			if err != nil {
				return zero, err
			}

			tag, err := q.Exec(ctx, s.m.deleteByID, id)
			if err != nil {
				return zero, err
			}
			if tag.RowsAffected() == 0 {
				return zero, errNotFound
			}
			return found, nil
		})
	if err != nil {
		return zero, s.absent("remove", err)
	}
	return removed, nil
}

// Update は既存エンティティを更新し、更新前のスナップショット（シャローコピー）を返します。
// 対象が存在しない場合は作成せずに ErrAbsent を返します。
func (s *entityStore[V]) Update(ctx context.Context, entity V) (V, error) {
	var zero V
	if entity == zero {
		return zero, s.absent("update", fmt.Errorf("entity is nil: %w", errInvalidArgument))
	}

	s.logger.Info("update single entity", zap.Int64("id", s.m.id(entity)))

	old, err := pgdb.Wrap[V, V](s.factory, entity, pgdb.WithLogger(s.logger)).
		ExecuteWithTransaction(ctx, func(ctx context.Context, q pgdb.Queryer, e V) (V, error) {
			current, err := s.findByID(ctx, q, s.m.id(e))
			if err != nil {
				return zero, err
			}

			previous := current.Clone()
			if err := s.m.merge(ctx, q, e); err != nil {
				return zero, err
			}
			return previous, nil
		})
	if err != nil {
		return zero, s.absent("update", err)
	}
	return old, nil
}

// Create はエンティティを保存し、別の読み取りで採番後の正規の形を取得して返します。
// 保存に成功すると entity の ID も更新されます。
func (s *entityStore[V]) Create(ctx context.Context, entity V) (V, error) {
	var zero V
	if entity == zero {
		return zero, s.absent("create", fmt.Errorf("entity is nil: %w", errInvalidArgument))
	}

	s.logger.Info("create and save new entity")

	id, err := pgdb.Wrap[V, int64](s.factory, entity, pgdb.WithLogger(s.logger)).
		ExecuteWithTransaction(ctx, func(ctx context.Context, q pgdb.Queryer, e V) (int64, error) {
			return s.m.insert(ctx, q, e)
		})
	if err != nil {
		return zero, s.absent("create", err)
	}
	s.m.setID(entity, id)

	s.logger.Info("new entity was successfully created", zap.Int64("id", id))

	created, err := pgdb.Wrap[V, V](s.factory, entity, pgdb.WithLogger(s.logger)).
		Execute(ctx, func(ctx context.Context, q pgdb.Queryer, e V) (V, error) {
			return s.findByID(ctx, q, s.m.id(e))
		})
	if err != nil {
		return zero, s.absent("create", err)
	}
	return created, nil
}

func (s *entityStore[V]) list(ctx context.Context, q pgdb.Queryer, offset, limit int) ([]V, error) {
	rows, err := q.Query(ctx, s.m.selectAll+`
         LIMIT $1
        OFFSET $2
    `, limitArg(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]V, 0)
	for rows.Next() {
		item, err := s.m.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *entityStore[V]) findByID(ctx context.Context, q pgdb.Queryer, id int64) (V, error) {
	return s.m.scan(q.QueryRow(ctx, s.m.selectByID, id))
}

// absent は原因をログに記録し、呼び出し元には ErrAbsent だけを返します。
func (s *entityStore[V]) absent(op string, cause error) error {
	fields := append([]zap.Field{zap.String("op", op), zap.Error(cause)}, pgErrorFields(cause)...)

	switch {
	case errors.Is(cause, errNotFound), errors.Is(cause, errInvalidArgument):
		s.logger.Warn("entity is absent", fields...)
	default:
		s.logger.Error("store operation failed", fields...)
	}
	return store.ErrAbsent
}

func pgErrorFields(err error) []zap.Field {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	return []zap.Field{
		zap.String("pg_code", pgErr.Code),
		zap.String("pg_constraint", pgErr.ConstraintName),
	}
}

// limitArg は NoLimit を SQL の LIMIT NULL（無制限）に変換します。
func limitArg(limit int) any {
	if limit == pgdb.NoLimit {
		return nil
	}
	return limit
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func translateNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errNotFound
	}
	return err
}
