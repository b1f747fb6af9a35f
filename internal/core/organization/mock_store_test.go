package organization_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// mockStore は store.Store の testify モックです。
type mockStore[V any] struct {
	mock.Mock
}

func (m *mockStore[V]) FindAll(ctx context.Context) ([]V, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]V)
	return items, args.Error(1)
}

func (m *mockStore[V]) FindPage(ctx context.Context, offset, length int) ([]V, error) {
	args := m.Called(ctx, offset, length)
	items, _ := args.Get(0).([]V)
	return items, args.Error(1)
}

func (m *mockStore[V]) Find(ctx context.Context, id int64) (V, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(V)
	return item, args.Error(1)
}

func (m *mockStore[V]) Remove(ctx context.Context, id int64) (V, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(V)
	return item, args.Error(1)
}

func (m *mockStore[V]) Update(ctx context.Context, entity V) (V, error) {
	args := m.Called(ctx, entity)
	item, _ := args.Get(0).(V)
	return item, args.Error(1)
}

func (m *mockStore[V]) Create(ctx context.Context, entity V) (V, error) {
	args := m.Called(ctx, entity)
	item, _ := args.Get(0).(V)
	return item, args.Error(1)
}
