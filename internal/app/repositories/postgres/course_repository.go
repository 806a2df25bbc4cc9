package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/dberrors"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CourseRepository handles course database operations
type CourseRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: database,
		sb: statementBuilder(),
	}
}

// selectCourses counts enrollments in the same statement so the derived
// count always reflects the ledger.
func (r *CourseRepository) selectCourses() squirrel.SelectBuilder {
	return r.sb.Select(
		"c.id::text", "c.code", "c.title", "c.description", "c.credits",
		"c.created_at", "c.updated_at", "COUNT(e.id)",
	).
		From("courses c").
		LeftJoin("enrollments e ON e.course_id = c.id").
		GroupBy("c.id")
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var (
		course      models.Course
		description *string
		enrolled    int64
	)
	if err := row.Scan(&course.ID, &course.Code, &course.Title, &description, &course.Credits,
		&course.CreatedAt, &course.UpdatedAt, &enrolled); err != nil {
		return nil, err
	}
	course.Description = textValue(description)
	course.StudentsEnrolled = int(enrolled)
	return &course, nil
}

// GetAll retrieves every course ordered by code
func (r *CourseRepository) GetAll(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.selectCourses().OrderBy("c.code ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get all courses query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

// GetByID retrieves a course by id
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	courseID, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return r.getByID(ctx, courseID)
}

func (r *CourseRepository) getByID(ctx context.Context, id string) (*models.Course, error) {
	sql, args, err := r.selectCourses().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("courseID", id).Msg("Error getting course by ID")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}
	return course, nil
}

// Create inserts a course and fills in its id and timestamps
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	id := uuid.NewString()
	sql, args, err := r.sb.Insert("courses").
		Columns("id", "code", "title", "description", "credits").
		Values(id, course.Code, course.Title, nullableText(course.Description), course.Credits).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&course.CreatedAt, &course.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintCourseCode) {
			return apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}

	course.ID = id
	course.StudentsEnrolled = 0
	return nil
}

// Update replaces all editable fields and returns the stored row
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (*models.Course, error) {
	courseID, ok := parseID(course.ID)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}

	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"code":        course.Code,
			"title":       course.Title,
			"description": nullableText(course.Description),
			"credits":     course.Credits,
			"updated_at":  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": courseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintCourseCode) {
			return nil, apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Str("courseID", course.ID).Msg("Error executing update course query")
		return nil, fmt.Errorf("error updating course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, apperrors.ErrCourseNotFound
	}

	return r.getByID(ctx, courseID)
}

// Delete removes the course's enrollments and then the course inside one
// transaction.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	courseID, ok := parseID(id)
	if !ok {
		return apperrors.ErrCourseNotFound
	}

	deleteEnrollments, enrollArgs, err := r.sb.Delete("enrollments").Where(squirrel.Eq{"course_id": courseID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete enrollments query: %w", err)
	}
	deleteCourse, courseArgs, err := r.sb.Delete("courses").Where(squirrel.Eq{"id": courseID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		removed, err := tx.Exec(ctx, deleteEnrollments, enrollArgs...)
		if err != nil {
			logger.Error().Err(err).Str("courseID", id).Msg("Error deleting course enrollments")
			return fmt.Errorf("error deleting course enrollments: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, deleteCourse, courseArgs...)
		if err != nil {
			logger.Error().Err(err).Str("courseID", id).Msg("Error deleting course")
			return fmt.Errorf("error deleting course: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrCourseNotFound
		}

		logger.Debug().Str("courseID", id).Int64("enrollmentsRemoved", removed.RowsAffected()).Msg("Course deleted")
		return nil
	})
}

// Count returns the number of courses
func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting courses: %w", err)
	}
	return n, nil
}
