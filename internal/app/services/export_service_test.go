package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_ExportCourses(t *testing.T) {
	repos := newTestRepos()
	ctx := context.Background()

	cs := seedCourse(t, repos, "CS101", "Intro to Programming", 3)
	seedCourse(t, repos, "MA201", "Linear Algebra", 4)
	_, err := repos.Enrollments.Create(ctx, "ada@campus.edu", cs)
	require.NoError(t, err)

	svc := NewExportService(repos.Courses, nopLogger).(*exportServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, 4, 23, 12, 0, 0, 0, time.UTC) }

	buf, filename, err := svc.ExportCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "courses_20250423.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Courses"}, f.GetSheetList())

	rows, err := f.GetRows("Courses")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Code", "Title", "Credits", "Students Enrolled", "Description"}, rows[0])

	byCode := map[string][]string{}
	for _, row := range rows[1:] {
		byCode[row[0]] = row
	}
	require.Contains(t, byCode, "CS101")
	assert.Equal(t, "Intro to Programming", byCode["CS101"][1])
	assert.Equal(t, "3", byCode["CS101"][2])
	assert.Equal(t, "1", byCode["CS101"][3])
	require.Contains(t, byCode, "MA201")
	assert.Equal(t, "0", byCode["MA201"][3])
}

func TestExportService_EmptyCatalog(t *testing.T) {
	svc := NewExportService(newTestRepos().Courses, nopLogger)

	buf, _, err := svc.ExportCourses(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Courses")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
