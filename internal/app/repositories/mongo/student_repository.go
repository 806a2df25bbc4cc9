package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// studentDocument stores the credential hash under "password"; legacy
// documents have no such field.
type studentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID string             `bson:"studentId"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Program   string             `bson:"program"`
	Password  string             `bson:"password,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *studentDocument) toModel() *models.Student {
	return &models.Student{
		ID:         d.ID.Hex(),
		StudentID:  d.StudentID,
		Name:       d.Name,
		Email:      d.Email,
		Program:    d.Program,
		Credential: auth.HashedCredential(d.Password),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func mapStudentWriteError(err error) error {
	switch {
	case isDuplicateOn(err, indexStudentID):
		return apperrors.ErrStudentIDAlreadyExists
	case isDuplicateOn(err, indexStudentEmail):
		return apperrors.ErrEmailAlreadyExists
	}
	return nil
}

// StudentRepository handles student documents
type StudentRepository struct {
	students *mongo.Collection
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(database *db.MongoDB) *StudentRepository {
	return &StudentRepository{students: database.Database.Collection(db.CollectionStudents)}
}

// GetAll retrieves every student ordered by name
func (r *StudentRepository) GetAll(ctx context.Context) ([]*models.Student, error) {
	cursor, err := r.students.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		logger.Error().Err(err).Msg("Error finding students")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	defer cursor.Close(ctx)

	students := []*models.Student{}
	for cursor.Next(ctx) {
		var doc studentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding student: %w", err)
		}
		students = append(students, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*models.Student, error) {
	var doc studentDocument
	if err := r.students.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Msg("Error getting student")
		return nil, fmt.Errorf("error getting student: %w", err)
	}
	return doc.toModel(), nil
}

// GetByID retrieves a student by id
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// GetByEmail retrieves a student by login email, ignoring case
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, options.FindOne().SetCollation(db.EmailCollation))
}

// Create inserts a student and fills in its id and timestamps
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	doc := studentDocument{
		ID:        primitive.NewObjectID(),
		StudentID: student.StudentID,
		Name:      student.Name,
		Email:     student.Email,
		Program:   student.Program,
		Password:  student.Credential.Hash(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.students.InsertOne(ctx, doc); err != nil {
		if mapped := mapStudentWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("studentID", student.StudentID).Msg("Error inserting student")
		return fmt.Errorf("error creating student: %w", err)
	}

	student.ID = doc.ID.Hex()
	student.CreatedAt = now
	student.UpdatedAt = now
	return nil
}

// Update writes profile fields and leaves the credential untouched
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	oid, ok := parseObjectID(student.ID)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	now := time.Now().UTC()
	res, err := r.students.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: bson.D{
		{Key: "studentId", Value: student.StudentID},
		{Key: "name", Value: student.Name},
		{Key: "email", Value: student.Email},
		{Key: "program", Value: student.Program},
		{Key: "updatedAt", Value: now},
	}}})
	if err != nil {
		if mapped := mapStudentWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("id", student.ID).Msg("Error updating student")
		return fmt.Errorf("error updating student: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrStudentNotFound
	}

	student.UpdatedAt = now
	return nil
}

// UpdateCredential replaces the stored credential hash
func (r *StudentRepository) UpdateCredential(ctx context.Context, id string, credential auth.Credential) error {
	oid, ok := parseObjectID(id)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password", Value: credential.Hash()},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	if !credential.IsSet() {
		update = bson.D{
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
			{Key: "$unset", Value: bson.D{{Key: "password", Value: ""}}},
		}
	}

	res, err := r.students.UpdateByID(ctx, oid, update)
	if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error updating student credential")
		return fmt.Errorf("error updating student credential: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete removes a student document
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	oid, ok := parseObjectID(id)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	res, err := r.students.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error deleting student")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Count returns the number of students
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.students.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}
