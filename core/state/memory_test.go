package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)

	created, err := store.Create(ctx, 1, "finance")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StepNotStarted, created.Step)

	created.Step = "category1"
	created.Fields["category1"] = "Продукты"
	created.Fields["category2"] = nil
	require.NoError(t, store.Put(ctx, created))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, Step("category1"), got.Step)
	assert.Equal(t, "Продукты", got.Fields["category1"])
	v, ok := got.Fields["category2"]
	assert.True(t, ok, "skipped field must survive as nil")
	assert.Nil(t, v)

	replaced, err := store.Create(ctx, 1, "registration")
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, replaced.ID)
	got, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "registration", got.Flow)
	assert.Empty(t, got.Fields)

	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 1), "delete must be idempotent")
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s, err := store.Create(ctx, 7, "registration")
	require.NoError(t, err)

	s.Fields["name"] = "Анна"
	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.NotContains(t, got.Fields, "name", "uncommitted mutation leaked into the store")

	got.Fields["name"] = "Анна"
	require.NoError(t, store.Put(ctx, got))
	got.Fields["name"] = "Борис"

	again, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Анна", again.Fields["name"])
	assert.Equal(t, 1, store.Len())
}

func TestSessionDecodeFields(t *testing.T) {
	s := NewSession(1, "registration", fixedNow)
	s.Fields["name"] = "Анна"
	s.Fields["age"] = float64(12) // as read back from JSON
	s.Fields["grade"] = "7А"

	var out struct {
		Name  string `mapstructure:"name"`
		Age   int    `mapstructure:"age"`
		Grade string `mapstructure:"grade"`
	}
	require.NoError(t, s.DecodeFields(&out))
	assert.Equal(t, "Анна", out.Name)
	assert.Equal(t, 12, out.Age)
	assert.Equal(t, "7А", out.Grade)
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession(1, "assessment", fixedNow)
	s.Append(RoleAssistant, "Привет", fixedNow)
	s.Report = map[string]string{"request": "сайт"}

	c := s.Clone()
	c.Append(RoleUser, "ещё", fixedNow)
	c.Report["request"] = "другое"
	c.Fields["x"] = 1

	assert.Len(t, s.Log, 1)
	assert.Equal(t, "сайт", s.Report["request"])
	assert.NotContains(t, s.Fields, "x")
}
