package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/dto"
)

const coursesCSV = `id,title,credits,categories,preference_score,is_major,prerequisites_met
CMSC131,OOP I,4,CS,0.9,true,
MATH140,Calculus I,4,MATH,0.7,true,
ENGL101,Academic Writing,3,ENGL,0.4,false,
HIST200,History,3,HIST,0.3,false,false
`

const sectionsCSV = `course_id,section_id,seats,open_seats,waitlist,instructors,days,start_time,end_time,building,room,class_type
CMSC131,0101,40,3,0,Jane Doe,MWF,9:00am,9:50am,IRB,0318,Lecture
MATH140,0101,40,5,0,Alan Smith,MWF,9:00am,9:50am,MTH,0101,Lecture
MATH140,0201,40,5,0,Ada Lovelace,TuTh,11:00am,12:15pm,MTH,0102,Lecture
ENGL101,0101,20,2,0,Mary Shelley,TuTh,2:00pm,3:15pm,TWS,1100,Lecture
HIST200,0101,30,9,0,Howard Zinn,MWF,1:00pm,1:50pm,KEY,0106,Lecture
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunWritesRankedJSON(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	opts := options{
		coursesPath:  writeFixture(t, dir, "courses.csv", coursesCSV),
		sectionsPath: writeFixture(t, dir, "sections.csv", sectionsCSV),
		ratingsPath:  writeFixture(t, dir, "ratings.csv", "name,average_rating,review_count\nAda Lovelace,5,40\n"),
		target:       11,
		tolerance:    0,
		format:       "json",
		outPath:      filepath.Join(dir, "out.json"),
	}

	require.NoError(t, run(context.Background(), opts))

	raw, err := os.ReadFile(opts.outPath)
	require.NoError(t, err)
	var result dto.GenerateScheduleResponse
	require.NoError(t, json.Unmarshal(raw, &result))

	require.NotEmpty(t, result.Schedules)
	for _, schedule := range result.Schedules {
		assert.Equal(t, 11, schedule.TotalCredits)
	}
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, "HIST200", result.Excluded[0].CourseID)
}

func TestRunWritesCSVExport(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	opts := options{
		coursesPath:  writeFixture(t, dir, "courses.csv", coursesCSV),
		sectionsPath: writeFixture(t, dir, "sections.csv", sectionsCSV),
		ratingsPath:  writeFixture(t, dir, "ratings.csv", "name,average_rating,review_count\nAda Lovelace,5,40\n"),
		target:       8,
		tolerance:    0,
		format:       "csv",
		rank:         1,
		outPath:      filepath.Join(dir, "out.csv"),
	}

	require.NoError(t, run(context.Background(), opts))
	raw, err := os.ReadFile(opts.outPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "rank,course")
	assert.Contains(t, string(raw), "CMSC131")
	assert.Contains(t, string(raw), "MATH140")
}

// Without ratings both MATH140 sections tie and the first one, which overlaps CMSC131, is kept.
func TestRunUnratedTieCanEmptyResult(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	opts := options{
		coursesPath:  writeFixture(t, dir, "courses.csv", coursesCSV),
		sectionsPath: writeFixture(t, dir, "sections.csv", sectionsCSV),
		target:       8,
		tolerance:    0,
		format:       "json",
		outPath:      filepath.Join(dir, "out.json"),
	}

	require.NoError(t, run(context.Background(), opts))
	raw, err := os.ReadFile(opts.outPath)
	require.NoError(t, err)
	var result dto.GenerateScheduleResponse
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Empty(t, result.Schedules)

	opts.format = "csv"
	opts.rank = 1
	opts.outPath = filepath.Join(dir, "out.csv")
	require.Error(t, run(context.Background(), opts))
}

func TestBuildRequest(t *testing.T) {
	req := buildRequest(options{target: 12, tolerance: -1, completed: " cmsc131, ,MATH140", strategy: "DFS"}, nil)
	assert.Nil(t, req.Tolerance)
	assert.Nil(t, req.MaxResults)
	assert.Equal(t, []string{"cmsc131", "MATH140"}, req.CompletedCourses)
	assert.Equal(t, "dfs", req.Strategy)

	req = buildRequest(options{tolerance: 2, maxResults: 3}, nil)
	assert.Equal(t, 2, *req.Tolerance)
	assert.Equal(t, 3, *req.MaxResults)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
