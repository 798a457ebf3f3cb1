package resultstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&RunRecord{}))
	return db
}

func TestGormRepository_SaveAndGetRunSummaries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	summaries := []*RunSummary{
		{
			RunID:            "run-1",
			Rank:             0,
			NumRanks:         2,
			NumLocalElements: 4,
			GlobalNodeCount:  17,
			OwnedCount:       9,
			SharedCount:      3,
			GlobalOffset:     0,
			ConfigHistogram:  map[uint8]int{0: 3, 1: 1},
			PhaseTimings:     map[string]interface{}{"traversal": 1.5, "exchange": 2.25},
		},
		{
			RunID:            "run-1",
			Rank:             1,
			NumRanks:         2,
			NumLocalElements: 5,
			GlobalNodeCount:  17,
			OwnedCount:       8,
			SharedCount:      3,
			GlobalOffset:     9,
			ConfigHistogram:  map[uint8]int{0: 4, 1: 1},
			PhaseTimings:     map[string]interface{}{"traversal": 1.1},
		},
	}

	for _, s := range summaries {
		require.NoError(t, repo.SaveRun(ctx, s))
	}

	got, err := repo.GetRunSummaries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].Rank)
	assert.Equal(t, 4, got[0].NumLocalElements)
	assert.Equal(t, 17, got[0].GlobalNodeCount)
	assert.Equal(t, 9, got[0].OwnedCount)
	assert.Equal(t, 3, got[0].SharedCount)
	assert.Equal(t, 3, got[0].ConfigHistogram[0])
	assert.Equal(t, 1.5, got[0].PhaseTimings["traversal"])

	assert.Equal(t, 1, got[1].Rank)
	assert.Equal(t, 5, got[1].NumLocalElements)
}

func TestGormRepository_GetRunSummariesEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRepository(db)
	ctx := context.Background()

	got, err := repo.GetRunSummaries(ctx, "nonexistent-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGormRepository_HealthCheck(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRepository(db)

	err := repo.HealthCheck(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.Close())
}

func TestJSONFieldRoundTrip(t *testing.T) {
	summary := &RunSummary{
		RunID:        "run-json",
		PhaseTimings: map[string]interface{}{"a": 1.0, "b": "x"},
	}

	record, err := summary.ToRecord()
	require.NoError(t, err)
	assert.NotNil(t, record.PhaseTimings)

	back, err := record.ToSummary()
	require.NoError(t, err)
	assert.Equal(t, 1.0, back.PhaseTimings["a"])
	assert.Equal(t, "x", back.PhaseTimings["b"])
}

func TestJSONFieldScanVariants(t *testing.T) {
	var j JSONField

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)

	require.NoError(t, j.Scan([]byte(`{"k":1}`)))
	assert.Equal(t, `{"k":1}`, string(j))

	require.NoError(t, j.Scan(`{"k":2}`))
	assert.Equal(t, `{"k":2}`, string(j))

	assert.Error(t, j.Scan(42))
}

func TestNewRepositoryRejectsUnsupportedType(t *testing.T) {
	_, err := NewRepository(&DBConfig{Type: "oracle", Host: "localhost"})
	assert.Error(t, err)
}

// TestGormRepository_SaveRunOverSQLMock exercises the GORM query path
// against a scripted raw connection, the same way the teacher's postgres
// repository tests assert on the SQL gorm generates.
func TestGormRepository_SaveRunOverSQLMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	repo := NewGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "numbering_run"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err = repo.SaveRun(context.Background(), &RunSummary{
		RunID:            "run-mock",
		Rank:             0,
		NumRanks:         2,
		NumLocalElements: 4,
		GlobalNodeCount:  17,
		OwnedCount:       9,
		SharedCount:      3,
		GlobalOffset:     0,
		ConfigHistogram:  map[uint8]int{0: 4},
		PhaseTimings:     map[string]interface{}{"traversal": 1.0},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
