package repository

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

// testDB stays nil when Docker is not reachable, tests then skip.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil || pool.Client.Ping() != nil {
		log.Printf("docker unavailable, skipping postgres tests: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=choir",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=choir_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres: %v", err)
	}
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("postgres://choir:secret@%s/choir_test?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 2 * time.Minute
	if err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}
		testDB = db
		return nil
	}); err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("could not connect to postgres: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres: %v", err)
	}
	os.Exit(code)
}

func freshDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres not available")
	}
	require.NoError(t, testDB.Migrator().DropTable(&dao.Attendance{}))
	require.NoError(t, dao.InitTables(testDB))
	return testDB
}

// refuseBucketUpdates makes Postgres reject any update of userID's bucket.
func refuseBucketUpdates(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()
	require.NoError(t, db.Exec(fmt.Sprintf(`
CREATE OR REPLACE FUNCTION refuse_bucket_update() RETURNS trigger AS $$
BEGIN
	IF NEW.user_id = %d THEN
		RAISE EXCEPTION 'bucket write refused';
	END IF;
	RETURN NEW;
END
$$ LANGUAGE plpgsql`, userID)).Error)
	require.NoError(t, db.Exec(`
CREATE TRIGGER refuse_bucket_update BEFORE UPDATE ON attendances
FOR EACH ROW EXECUTE FUNCTION refuse_bucket_update()`).Error)
	t.Cleanup(func() {
		_ = db.Exec("DROP TRIGGER IF EXISTS refuse_bucket_update ON attendances").Error
	})
}

func record(eventID uint, event, date string, status domain.Status) domain.AttendanceRecord {
	day, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return domain.AttendanceRecord{
		EventID:       eventID,
		EventSnapshot: domain.EventSnapshot{Name: event, Date: day},
		Status:        status,
	}
}

func TestAttendanceRepository_UpsertRecords(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewAttendanceRepository(dao.NewAttendanceDAO(db))

	written, err := repo.UpsertRecords(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, written)

	// first save creates the buckets
	written, err = repo.UpsertRecords(ctx, []domain.AttendanceUpsert{
		{UserID: 1, Name: "Ana", Record: record(10, "Practice", "2024-05-01", domain.StatusPresent)},
		{UserID: 2, Name: "Ben", Record: record(10, "Practice", "2024-05-01", domain.StatusAbsent)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []domain.AttendanceRecord{record(10, "Practice", "2024-05-01", domain.StatusPresent)}, all[0].Records)
	assert.Equal(t, []domain.AttendanceRecord{record(10, "Practice", "2024-05-01", domain.StatusAbsent)}, all[1].Records)

	_, err = repo.UpsertRecords(ctx, []domain.AttendanceUpsert{
		{UserID: 1, Name: "Ana", Record: record(11, "Mass", "2024-05-05", domain.StatusPresent)},
	})
	require.NoError(t, err)

	// saving the same event again replaces the record where it was
	written, err = repo.UpsertRecords(ctx, []domain.AttendanceUpsert{
		{UserID: 1, Name: "Ana Maria", Record: record(10, "Practice", "2024-05-01", domain.StatusExcused)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	ana, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", ana.Name)
	assert.Equal(t, []domain.AttendanceRecord{
		record(10, "Practice", "2024-05-01", domain.StatusExcused),
		record(11, "Mass", "2024-05-05", domain.StatusPresent),
	}, ana.Records)

	referenced, err := repo.IsEventReferenced(ctx, 11)
	require.NoError(t, err)
	assert.True(t, referenced)
}

func TestAttendanceRepository_UpsertRecordsAllOrNothing(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()
	repo := NewAttendanceRepository(dao.NewAttendanceDAO(db))

	_, err := repo.UpsertRecords(ctx, []domain.AttendanceUpsert{
		{UserID: 1, Name: "Ana", Record: record(10, "Practice", "2024-05-01", domain.StatusPresent)},
		{UserID: 2, Name: "Ben", Record: record(10, "Practice", "2024-05-01", domain.StatusPresent)},
	})
	require.NoError(t, err)

	before, err := repo.FindAll(ctx)
	require.NoError(t, err)

	refuseBucketUpdates(t, db, 2)

	// Ana is written before Ben's update fails, Cy's bucket is new
	written, err := repo.UpsertRecords(ctx, []domain.AttendanceUpsert{
		{UserID: 1, Name: "Ana", Record: record(10, "Practice", "2024-05-01", domain.StatusAbsent)},
		{UserID: 2, Name: "Ben", Record: record(10, "Practice", "2024-05-01", domain.StatusAbsent)},
		{UserID: 3, Name: "Cy", Record: record(10, "Practice", "2024-05-01", domain.StatusAbsent)},
	})
	assert.ErrorContains(t, err, "bucket write refused")
	assert.Zero(t, written)

	after, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = repo.FindByUserID(ctx, 3)
	assert.ErrorIs(t, err, ErrAttendanceNotFound)
}
