package postgres

import (
	"context"
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

// EnrollmentRepository handles enrollment database operations
type EnrollmentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(database *db.PostgresDB) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: database,
		sb: statementBuilder(),
	}
}

// GetByStudent lists a student's enrollments with their course summaries.
// The inner join drops rows whose course no longer exists.
func (r *EnrollmentRepository) GetByStudent(ctx context.Context, studentEmail string) ([]*models.Enrollment, error) {
	sql, args, err := r.sb.Select(
		"e.id::text", "e.student_email", "e.course_id::text", "e.enrollment_date",
		"c.code", "c.title", "c.credits", "c.description",
	).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Where(squirrel.Eq{"e.student_email": studentEmail}).
		OrderBy("e.enrollment_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollments query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("student", studentEmail).Msg("Error executing get enrollments query")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		var (
			e           models.Enrollment
			summary     models.CourseSummary
			description *string
		)
		if err := rows.Scan(&e.ID, &e.StudentEmail, &e.CourseID, &e.EnrollmentDate,
			&summary.Code, &summary.Title, &summary.Credits, &description); err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment row")
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		summary.Description = textValue(description)
		e.Course = &summary
		enrollments = append(enrollments, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}

// Create records a new enrollment. The existence check gives the common case
// a clean error; the unique constraint settles concurrent inserts.
func (r *EnrollmentRepository) Create(ctx context.Context, studentEmail, courseID string) (*models.Enrollment, error) {
	canonicalCourseID, ok := parseID(courseID)
	if !ok {
		return nil, apperrors.ErrInvalidID
	}

	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_email = $1 AND course_id = $2)`,
		studentEmail, canonicalCourseID,
	).Scan(&exists)
	if err != nil {
		logger.Error().Err(err).Msg("Error checking existing enrollment")
		return nil, fmt.Errorf("error checking existing enrollment: %w", err)
	}
	if exists {
		return nil, apperrors.ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		ID:           uuid.NewString(),
		StudentEmail: studentEmail,
		CourseID:     canonicalCourseID,
	}

	sql, args, err := r.sb.Insert("enrollments").
		Columns("id", "student_email", "course_id").
		Values(enrollment.ID, studentEmail, canonicalCourseID).
		Suffix("RETURNING enrollment_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&enrollment.EnrollmentDate); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, constraintEnrollmentUnique):
			return nil, apperrors.ErrAlreadyEnrolled
		case dberrors.IsForeignKeyError(err):
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("student", studentEmail).Str("courseID", courseID).Msg("Error executing create enrollment query")
		return nil, fmt.Errorf("error creating enrollment: %w", err)
	}

	return enrollment, nil
}

// ReassignStudent removes rows newEmail still holds and moves oldEmail's rows
// onto it, in one transaction
func (r *EnrollmentRepository) ReassignStudent(ctx context.Context, oldEmail, newEmail string) (int64, error) {
	if oldEmail == newEmail {
		return 0, nil
	}

	deleteSQL, deleteArgs, err := r.sb.Delete("enrollments").
		Where(squirrel.Eq{"student_email": newEmail}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build clear enrollments query: %w", err)
	}
	updateSQL, updateArgs, err := r.sb.Update("enrollments").
		Set("student_email", newEmail).
		Where(squirrel.Eq{"student_email": oldEmail}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build reassign enrollments query: %w", err)
	}

	var moved int64
	err = r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
			return fmt.Errorf("error clearing enrollments of %s: %w", newEmail, err)
		}
		cmdTag, err := tx.Exec(ctx, updateSQL, updateArgs...)
		if err != nil {
			return fmt.Errorf("error reassigning enrollments: %w", err)
		}
		moved = cmdTag.RowsAffected()
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Str("from", oldEmail).Str("to", newEmail).Msg("Error reassigning enrollments")
		return 0, err
	}
	return moved, nil
}

// Count returns the number of enrollments
func (r *EnrollmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting enrollments: %w", err)
	}
	return n, nil
}
