package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSectionRepositoryListByCourseOpenOnly(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "section_id", "seats", "open_seats", "waitlist", "instructors", "meetings", "updated_at"}).
		AddRow("s-1", "CMSC131", "0101", 40, 3, 0, `{"Jane Doe","John Roe"}`, `[{"days":"MWF","start_time":"9:00am","end_time":"9:50am"}]`, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sections WHERE course_id = $1 AND open_seats > 0 ORDER BY section_id")).
		WithArgs("CMSC131").
		WillReturnRows(rows)

	records, err := repo.ListByCourse(context.Background(), "CMSC131", true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, pq.StringArray{"Jane Doe", "John Roe"}, records[0].Instructors)

	meetings, err := records[0].RawMeetings()
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "MWF", meetings[0].Days)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListByCourseAllSeats(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sections WHERE course_id = $1 ORDER BY section_id")).
		WithArgs("MATH140").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	records, err := repo.ListByCourse(context.Background(), "MATH140", false)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpsertBatch(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sections").
		WithArgs(sqlmock.AnyArg(), "CMSC131", "0101", 40, 3, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sections").
		WithArgs(sqlmock.AnyArg(), "CMSC131", "0201", 40, 0, 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.SectionRecord{
		{CourseID: "CMSC131", SectionID: "0101", Seats: 40, OpenSeats: 3, Instructors: pq.StringArray{"Jane Doe"}, Meetings: types.JSONText(`[]`)},
		{CourseID: "CMSC131", SectionID: "0201", Seats: 40, OpenSeats: 0, Waitlist: 2},
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), records))
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, types.JSONText(`[]`), records[1].Meetings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpsertBatchRollsBack(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sections").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), []models.SectionRecord{{CourseID: "CMSC131", SectionID: "0101"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CMSC131/0101")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListInstructorNames(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT unnest(instructors) AS name FROM sections")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Jane Doe").AddRow("John Roe"))

	names, err := repo.ListInstructorNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
