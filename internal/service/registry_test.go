package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/types"
)

type mockProvider struct {
	id       string
	category types.Category
	lastTool string
}

func (m *mockProvider) Definition() types.Service {
	return types.Service{
		ID:          m.id,
		Name:        "Mock Service",
		Description: "A mock service for testing",
		Category:    m.category,
		Tools: []types.Tool{
			{ID: m.id + ".test", Name: "Test Tool", Returns: "string"},
		},
	}
}

func (m *mockProvider) Execute(_ context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	m.lastTool = toolID
	return types.Success(map[string]interface{}{"result": "success", "params": len(params)}), nil
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "test"}))

	_, ok := r.Get("test")
	assert.True(t, ok)

	err := r.Register(&mockProvider{id: "test"})
	assert.True(t, errors.Is(err, errdefs.ErrInvalid))

	err = r.Register(&mockProvider{})
	assert.True(t, errors.Is(err, errdefs.ErrInvalid))
}

func TestList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "watch", category: types.CategoryWatch}))
	require.NoError(t, r.Register(&mockProvider{id: "terminal", category: types.CategoryTerminal}))

	services := r.List(nil)
	require.Len(t, services, 2)
	assert.Equal(t, "terminal", services[0].ID)
	assert.Equal(t, "watch", services[1].ID)

	cat := types.CategoryWatch
	filtered := r.List(&cat)
	require.Len(t, filtered, 1)
	assert.Equal(t, "watch", filtered[0].ID)
}

func TestExecute(t *testing.T) {
	r := NewRegistry()
	p := &mockProvider{id: "test"}
	require.NoError(t, r.Register(p))

	result, err := r.Execute(context.Background(), "test.test", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "test.test", p.lastTool)
	assert.Equal(t, 0, result.Data["params"])
}

func TestExecuteErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Execute(context.Background(), "notool", nil)
	assert.True(t, errors.Is(err, errdefs.ErrInvalid))

	_, err = r.Execute(context.Background(), "missing.op", nil)
	assert.True(t, errors.Is(err, errdefs.ErrNotFound))
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&mockProvider{id: "test1", category: types.CategoryProcess}))
	require.NoError(t, r.Register(&mockProvider{id: "test2", category: types.CategoryProcess}))

	stats := r.Stats()
	assert.Equal(t, 2, stats["total_services"])
	assert.Equal(t, 2, stats["total_tools"])
	assert.Equal(t, map[string]int{"process": 2}, stats["categories"])
}
