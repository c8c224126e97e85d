package records

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := database.Config{
		Driver:        database.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "records.db"),
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
	require.NoError(t, database.RunMigrations(cfg))
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func ptr[T any](v T) *T { return &v }

func TestInsertStudentIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := Student{Name: "Анна", Age: 12, Grade: "7А"}
	require.NoError(t, s.InsertStudent(ctx, "sess-1", st))
	require.NoError(t, s.InsertStudent(ctx, "sess-1", st))
	require.NoError(t, s.InsertStudent(ctx, "sess-2", Student{Name: "Борис", Age: 15, Grade: "10Б"}))

	list, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Анна", list[0].Name)
	assert.Equal(t, 12, list[0].Age)
	assert.Equal(t, "7А", list[0].Grade)
	assert.Equal(t, "Борис", list[1].Name)
}

func TestSaveExpensesRequiresRegistration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lines := [3]Expense{{Category: ptr("Продукты"), Amount: 1500}}
	assert.ErrorIs(t, s.SaveExpenses(ctx, 42, lines), ErrNotRegistered)

	require.NoError(t, s.RegisterUser(ctx, 42, "Анна"))
	require.NoError(t, s.SaveExpenses(ctx, 42, lines))
	require.NoError(t, s.SaveExpenses(ctx, 42, lines))

	u, ok, err := s.UserByTelegramID(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Анна", u.Name)
	require.NotNil(t, u.Category1)
	assert.Equal(t, "Продукты", *u.Category1)
	assert.Equal(t, 1500.0, *u.Expenses1)
	assert.Nil(t, u.Category2)
	assert.Equal(t, 0.0, *u.Expenses2)
	assert.Nil(t, u.Category3)
	assert.Equal(t, 0.0, *u.Expenses3)

	exp := u.Expenses()
	require.Len(t, exp, 1)
	assert.Equal(t, 1500.0, exp[0].Amount)
}

func TestRegisterUserRenames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterUser(ctx, 7, "Old"))
	require.NoError(t, s.RegisterUser(ctx, 7, "New"))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "New", users[0].Name)

	_, ok, err := s.UserByTelegramID(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveAssessment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	report := map[string]string{"Имя": "Олег", "Бюджет": "100000", "Источник": "сайт"}
	require.NoError(t, s.SaveAssessment(ctx, "a-1", 9, report))
	require.NoError(t, s.SaveAssessment(ctx, "a-1", 9, map[string]string{"Имя": "другое"}))

	list, err := s.ListAssessments(ctx, 9)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, report, list[0].Report)

	p, err := DecodeProfile(list[0].Report)
	require.NoError(t, err)
	assert.Equal(t, "Олег", p.Name)
	assert.Equal(t, "100000", p.Budget)
	assert.Equal(t, map[string]string{"Источник": "сайт"}, p.Extra)
	require.NoError(t, s.Ping(ctx))
}
