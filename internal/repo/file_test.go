package repo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/repo"
)

func newFileRepo(t *testing.T) (repo.CollectionRepo, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trip_data.json")
	return repo.NewFileCollectionRepo(path), path
}

// collectionFixture returns a well-formed two-trip collection.
func collectionFixture() []domain.Trip {
	budget := 12000.0
	return []domain.Trip{
		{
			Destination: "Bangkok",
			StartDate:   "2024-01-01",
			EndDate:     "2024-01-05",
			Budget:      &budget,
			Expenses: []domain.Expense{
				{Date: "2024-01-02", Category: "Food", Amount: 250, Currency: domain.DefaultCurrency, Description: "Pad thai"},
				{Date: "2024-01-03", Category: "Transport", Amount: 80.5, Currency: "USD ($)"},
			},
		},
		{
			Destination: "Chiang Mai",
			StartDate:   "2024-02-10",
			EndDate:     "2024-02-08", // end before start is accepted
			Expenses:    []domain.Expense{},
		},
	}
}

func TestFileCollectionRepo_Load_MissingFile(t *testing.T) {
	r, _ := newFileRepo(t)

	got, err := r.Load(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFileCollectionRepo_RoundTrip(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()
	want := collectionFixture()

	require.NoError(t, r.Save(ctx, want))
	got, err := r.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, want, got)

	// save(load()) followed by load() is structurally stable.
	require.NoError(t, r.Save(ctx, got))
	again, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestFileCollectionRepo_Save_EmptyWritesArray(t *testing.T) {
	r, path := newFileRepo(t)

	require.NoError(t, r.Save(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestFileCollectionRepo_Save_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "trips.json")
	r := repo.NewFileCollectionRepo(path)

	require.NoError(t, r.Save(context.Background(), collectionFixture()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileCollectionRepo_Save_LeavesNoTempFiles(t *testing.T) {
	r, path := newFileRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Save(ctx, collectionFixture()))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the data file should remain")
	assert.Equal(t, "trip_data.json", entries[0].Name())
}

func TestFileCollectionRepo_Save_ReplacesWholeDocument(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, collectionFixture()))
	shorter := collectionFixture()[:1]
	require.NoError(t, r.Save(ctx, shorter))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, shorter, got)
}

func TestFileCollectionRepo_Load_Corrupt(t *testing.T) {
	cases := map[string]string{
		"garbage":      "{not json",
		"empty file":   "",
		"object":       `{"destination":"Bangkok"}`,
		"null":         "null",
		"wrong shapes": `[{"destination": 42}]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			r, path := newFileRepo(t)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			got, err := r.Load(context.Background())

			assert.ErrorIs(t, err, domain.ErrStorageCorruption)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestFileCollectionRepo_Load_MissingExpensesKey(t *testing.T) {
	r, path := newFileRepo(t)
	doc := `[{"destination":"Hanoi","start_date":"2024-03-01","end_date":"2024-03-04"}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, err := r.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Expenses, "missing expenses must load as an empty slice")
	assert.Empty(t, got[0].Expenses)
	assert.Nil(t, got[0].Budget)
}

func TestFileCollectionRepo_Load_PreservesMissingCurrency(t *testing.T) {
	r, path := newFileRepo(t)
	doc := `[{"destination":"Hanoi","start_date":"2024-03-01","end_date":"2024-03-04",
		"expenses":[{"date":"2024-03-02","category":"Food","amount":3.5}]}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, err := r.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, got[0].Expenses, 1)
	// Stored data is returned unchanged; defaults apply only on insert.
	assert.Empty(t, got[0].Expenses[0].Currency)
}

func TestFileCollectionRepo_CanceledContext(t *testing.T) {
	r, _ := newFileRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = r.Save(ctx, collectionFixture())
	assert.ErrorIs(t, err, context.Canceled)
}
