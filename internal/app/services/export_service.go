package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const catalogSheet = "Courses"

var catalogHeaders = []string{"Code", "Title", "Credits", "Students Enrolled", "Description"}

// ExportService defines the interface for spreadsheet exports
type ExportService interface {
	// ExportCourses returns the catalog as an .xlsx workbook and a suggested file name
	ExportCourses(ctx context.Context) (*bytes.Buffer, string, error)
}

// exportServiceImpl implements ExportService
type exportServiceImpl struct {
	courseRepo repositories.CourseRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(courseRepo repositories.CourseRepository, logger zerolog.Logger) ExportService {
	return &exportServiceImpl{
		courseRepo: courseRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// ExportCourses writes one row per course, ordered as the catalog lists them
func (s *exportServiceImpl) ExportCourses(ctx context.Context) (*bytes.Buffer, string, error) {
	courses, err := s.courseRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch courses for export")
		return nil, "", fmt.Errorf("error getting courses: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(catalogSheet)
	if err != nil {
		return nil, "", apperrors.NewServiceError("Failed to generate the export", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetColWidth(catalogSheet, "A", "A", 12)
	_ = f.SetColWidth(catalogSheet, "B", "B", 36)
	_ = f.SetColWidth(catalogSheet, "C", "D", 18)
	_ = f.SetColWidth(catalogSheet, "E", "E", 80)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range catalogHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(catalogSheet, cell, h)
	}
	_ = f.SetCellStyle(catalogSheet, "A1", "E1", headerStyle)

	for r, c := range courses {
		row := r + 2
		values := []interface{}{c.Code, c.Title, c.Credits, c.StudentsEnrolled, c.Description}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(catalogSheet, cell, v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write course export")
		return nil, "", apperrors.NewServiceError("Failed to generate the export", err)
	}

	filename := fmt.Sprintf("courses_%s.xlsx", s.now().UTC().Format("20060102"))
	return buf, filename, nil
}
