package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// NoLimit は件数制限なしを表す番兵値です。
const NoLimit = -1

var (
	errNilFactory   = errors.New("postgres: session factory is required")
	errNilOperation = errors.New("postgres: operation is required")
)

// Operation は Session（またはトランザクション）と対象エンティティを受け取る処理です。
type Operation[E, R any] func(ctx context.Context, q Queryer, entity E) (R, error)

// LimitedOperation は件数制限を追加で受け取る Operation です。
type LimitedOperation[E, R any] func(ctx context.Context, q Queryer, entity E, limit int) (R, error)

// Option は Action の設定を変更します。
type Option func(*actionOptions)

type actionOptions struct {
	limit  int
	logger *zap.Logger
}

// WithLimit は LimitedOperation に渡す件数制限を設定します。
func WithLimit(limit int) Option {
	return func(o *actionOptions) {
		o.limit = limit
	}
}

// WithLogger は Action が利用するロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(o *actionOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Action は 1 単位の永続化処理を安全に実行するためのハンドルです。
// Session の確保と解放、必要に応じたトランザクションの開始・コミット・ロールバックを受け持ち、
// 処理の中身は呼び出し側が Operation として渡します。
//
// Action は呼び出しごとに生成し、ゴルーチン間で共有しないでください。
type Action[E, R any] struct {
	id      uuid.UUID
	factory SessionFactory
	entity  E
	limit   int
	logger  *zap.Logger
}

// Wrap は factory と対象エンティティから Action を構成します。
func Wrap[E, R any](factory SessionFactory, entity E, opts ...Option) *Action[E, R] {
	o := actionOptions{limit: NoLimit, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.New()
	return &Action[E, R]{
		id:      id,
		factory: factory,
		entity:  entity,
		limit:   o.limit,
		logger:  o.logger.With(zap.String("action_id", id.String())),
	}
}

// Limit は設定済みの件数制限を返します。
func (a *Action[E, R]) Limit() int {
	return a.limit
}

// Execute はトランザクションを開始せずに op を実行します。読み取り専用の処理向けです。
func (a *Action[E, R]) Execute(ctx context.Context, op Operation[E, R]) (R, error) {
	var zero R
	if op == nil {
		return zero, errNilOperation
	}

	session, err := a.acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer a.release(session)

	return op(ctx, session, a.entity)
}

// ExecuteLimited は Execute と同様ですが、設定済みの件数制限を op に渡します。
func (a *Action[E, R]) ExecuteLimited(ctx context.Context, op LimitedOperation[E, R]) (R, error) {
	var zero R
	if op == nil {
		return zero, errNilOperation
	}

	session, err := a.acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer a.release(session)

	return op(ctx, session, a.entity, a.limit)
}

// ExecuteWithTransaction は読み書きトランザクション内で op を実行します。
// op が成功すればコミットし、失敗すればロールバックしてからエラーを返します。
// ロールバック自体の失敗は握りつぶさず、op のエラーと結合して返します。
func (a *Action[E, R]) ExecuteWithTransaction(ctx context.Context, op Operation[E, R]) (R, error) {
	var zero R
	if op == nil {
		return zero, errNilOperation
	}

	session, err := a.acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer a.release(session)

	tx, err := session.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		a.logger.Error("begin transaction failed", zap.Error(err))
		return zero, fmt.Errorf("postgres: begin tx: %w", err)
	}

	finished := false
	defer func() {
		// panic 経路
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	result, err := op(ctx, tx, a.entity)
	if err != nil {
		finished = true
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			a.logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
			return zero, errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		a.logger.Warn("transaction rolled back", zap.Error(err))
		return zero, err
	}

	finished = true
	if err := tx.Commit(ctx); err != nil {
		if !errors.Is(err, pgx.ErrTxClosed) {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				a.logger.Error("rollback after commit failure failed", zap.Error(rbErr), zap.NamedError("cause", err))
				return zero, errors.Join(fmt.Errorf("postgres: commit: %w", err), fmt.Errorf("postgres: rollback after commit failure: %w", rbErr))
			}
		}
		a.logger.Error("commit failed", zap.Error(err))
		return zero, fmt.Errorf("postgres: commit: %w", err)
	}

	a.logger.Debug("transaction committed")
	return result, nil
}

func (a *Action[E, R]) acquire(ctx context.Context) (Session, error) {
	if a.factory == nil {
		return nil, errNilFactory
	}

	session, err := a.factory.Acquire(ctx)
	if err != nil {
		a.logger.Error("acquire session failed", zap.Error(err))
		return nil, fmt.Errorf("postgres: acquire session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("postgres: acquire session: %w", errors.New("nil session"))
	}

	a.logger.Debug("session acquired")
	return session, nil
}

func (a *Action[E, R]) release(session Session) {
	session.Release()
	a.logger.Debug("session released")
}
