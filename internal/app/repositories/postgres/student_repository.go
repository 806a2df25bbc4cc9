package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/campuspulse/campuspulse/internal/pkg/dberrors"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var studentColumns = []string{
	"id::text", "student_id", "name", "email", "program", "password_hash", "created_at", "updated_at",
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(database *db.PostgresDB) *StudentRepository {
	return &StudentRepository{
		db: database,
		sb: statementBuilder(),
	}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var (
		student models.Student
		hash    *string
	)
	if err := row.Scan(&student.ID, &student.StudentID, &student.Name, &student.Email, &student.Program,
		&hash, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return nil, err
	}
	student.Credential = auth.HashedCredential(textValue(hash))
	return &student, nil
}

// mapStudentWriteError translates unique violations into domain errors
func mapStudentWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, constraintStudentID):
		return apperrors.ErrStudentIDAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, constraintStudentEmail):
		return apperrors.ErrEmailAlreadyExists
	}
	return nil
}

// GetAll retrieves every student ordered by name
func (r *StudentRepository) GetAll(ctx context.Context) ([]*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get all students query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all students query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning student row")
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	student, err := scanStudent(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Msg("Error getting student")
		return nil, fmt.Errorf("error getting student: %w", err)
	}
	return student, nil
}

// GetByID retrieves a student by id
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	studentID, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": studentID})
}

// GetByEmail retrieves a student by login email
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// Create inserts a student and fills in its id and timestamps
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	id := uuid.NewString()
	sql, args, err := r.sb.Insert("students").
		Columns("id", "student_id", "name", "email", "program", "password_hash").
		Values(id, student.StudentID, student.Name, student.Email, student.Program, nullableText(student.Credential.Hash())).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&student.CreatedAt, &student.UpdatedAt); err != nil {
		if mapped := mapStudentWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("studentID", student.StudentID).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}

	student.ID = id
	return nil
}

// Update writes profile fields; the credential column is never touched here
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	studentID, ok := parseID(student.ID)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	sql, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"student_id": student.StudentID,
			"name":       student.Name,
			"email":      student.Email,
			"program":    student.Program,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": studentID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&student.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrStudentNotFound
		}
		if mapped := mapStudentWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("id", student.ID).Msg("Error executing update student query")
		return fmt.Errorf("error updating student: %w", err)
	}
	return nil
}

// UpdateCredential replaces the stored credential hash
func (r *StudentRepository) UpdateCredential(ctx context.Context, id string, credential auth.Credential) error {
	studentID, ok := parseID(id)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	sql, args, err := r.sb.Update("students").
		Set("password_hash", nullableText(credential.Hash())).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": studentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update credential query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error updating student credential")
		return fmt.Errorf("error updating student credential: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete removes a student row
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	studentID, ok := parseID(id)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": studentID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Count returns the number of students
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}
