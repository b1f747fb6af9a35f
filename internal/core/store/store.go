// Package store はエンティティ種別に依存しない永続化の共通契約を定義します。
package store

import (
	"context"
	"errors"
)

// ErrAbsent はストア層の唯一の否定結果です。
// 不正な入力・未検出・内部障害のいずれもこの値に集約され、原因はストア実装側でログに記録されます。
var ErrAbsent = errors.New("store: absent")

// Store は V 型エンティティを K 型の ID で扱う CRUD 契約です。
//
// すべての操作は失敗時に V のゼロ値と ErrAbsent を返します。
type Store[V any, K comparable] interface {
	// FindAll は件数制限なしで全件を取得します。
	FindAll(ctx context.Context) ([]V, error)
	// FindPage は offset 件目から最大 length 件を取得します。並び順はストアの自然順です。
	FindPage(ctx context.Context, offset, length int) ([]V, error)
	// Find は ID でエンティティを取得します。
	Find(ctx context.Context, id K) (V, error)
	// Remove は ID でエンティティを削除し、削除前のスナップショットを返します。
	Remove(ctx context.Context, id K) (V, error)
	// Update は既存エンティティを更新し、更新前のスナップショットを返します。新規作成は行いません。
	Update(ctx context.Context, entity V) (V, error)
	// Create はエンティティを保存し、採番後に再取得した正規の形を返します。
	Create(ctx context.Context, entity V) (V, error)
}

// IsAbsent は err がストア層の否定結果かを判定します。
func IsAbsent(err error) bool {
	return errors.Is(err, ErrAbsent)
}
