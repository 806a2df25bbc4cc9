package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// enrollmentDocument keys the student by email under "studentId"
type enrollmentDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	StudentEmail   string             `bson:"studentId"`
	CourseID       primitive.ObjectID `bson:"courseId"`
	EnrollmentDate time.Time          `bson:"enrollmentDate"`
	Course         []courseDocument   `bson:"course,omitempty"`
}

func (d *enrollmentDocument) toModel() *models.Enrollment {
	e := &models.Enrollment{
		ID:             d.ID.Hex(),
		StudentEmail:   d.StudentEmail,
		CourseID:       d.CourseID.Hex(),
		EnrollmentDate: d.EnrollmentDate,
	}
	if len(d.Course) > 0 {
		e.Course = d.Course[0].toModel().Summary()
	}
	return e
}

// EnrollmentRepository handles enrollment documents
type EnrollmentRepository struct {
	client      *mongo.Client
	enrollments *mongo.Collection
	courses     *mongo.Collection
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(database *db.MongoDB) *EnrollmentRepository {
	return &EnrollmentRepository{
		client:      database.Client,
		enrollments: database.Database.Collection(db.CollectionEnrollments),
		courses:     database.Database.Collection(db.CollectionCourses),
	}
}

// GetByStudent lists a student's enrollments with their course summaries.
// Enrollments whose course no longer exists are dropped.
func (r *EnrollmentRepository) GetByStudent(ctx context.Context, studentEmail string) ([]*models.Enrollment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "studentId", Value: studentEmail}}}},
		{{Key: "$sort", Value: bson.D{{Key: "enrollmentDate", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.CollectionCourses},
			{Key: "localField", Value: "courseId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "course"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "course.0", Value: bson.D{{Key: "$exists", Value: true}}}}}},
	}

	cursor, err := r.enrollments.Aggregate(ctx, pipeline, options.Aggregate().SetCollation(db.EmailCollation))
	if err != nil {
		logger.Error().Err(err).Str("student", studentEmail).Msg("Error aggregating enrollments")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer cursor.Close(ctx)

	enrollments := []*models.Enrollment{}
	for cursor.Next(ctx) {
		var doc enrollmentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding enrollment: %w", err)
		}
		enrollments = append(enrollments, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}
	return enrollments, nil
}

// Create records a new enrollment. The unique pair index settles concurrent
// inserts for the same student and course.
func (r *EnrollmentRepository) Create(ctx context.Context, studentEmail, courseID string) (*models.Enrollment, error) {
	oid, ok := parseObjectID(courseID)
	if !ok {
		return nil, apperrors.ErrInvalidID
	}

	n, err := r.courses.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, fmt.Errorf("error checking course: %w", err)
	}
	if n == 0 {
		return nil, apperrors.ErrCourseNotFound
	}

	doc := enrollmentDocument{
		ID:             primitive.NewObjectID(),
		StudentEmail:   studentEmail,
		CourseID:       oid,
		EnrollmentDate: time.Now().UTC(),
	}
	if _, err := r.enrollments.InsertOne(ctx, doc); err != nil {
		if isDuplicateOn(err, indexEnrollmentPair) {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		logger.Error().Err(err).Str("student", studentEmail).Str("courseID", courseID).Msg("Error inserting enrollment")
		return nil, fmt.Errorf("error creating enrollment: %w", err)
	}

	return doc.toModel(), nil
}

// ReassignStudent removes documents newEmail still holds and moves oldEmail's
// documents onto it. Both steps share a transaction when the deployment
// supports one. A change of case only rewrites the stored address.
func (r *EnrollmentRepository) ReassignStudent(ctx context.Context, oldEmail, newEmail string) (int64, error) {
	if oldEmail == newEmail {
		return 0, nil
	}

	var moved int64
	sameAddress := strings.EqualFold(oldEmail, newEmail)
	reassign := func(ctx context.Context) error {
		if !sameAddress {
			if _, err := r.enrollments.DeleteMany(ctx,
				bson.D{{Key: "studentId", Value: newEmail}},
				options.Delete().SetCollation(db.EmailCollation),
			); err != nil {
				return fmt.Errorf("error clearing enrollments of %s: %w", newEmail, err)
			}
		}
		res, err := r.enrollments.UpdateMany(ctx,
			bson.D{{Key: "studentId", Value: oldEmail}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "studentId", Value: newEmail}}}},
			options.Update().SetCollation(db.EmailCollation),
		)
		if err != nil {
			return fmt.Errorf("error reassigning enrollments: %w", err)
		}
		moved = res.ModifiedCount
		return nil
	}

	session, err := r.client.StartSession()
	if err != nil {
		err = reassign(ctx)
	} else {
		defer session.EndSession(ctx)
		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, reassign(sc)
		})
		if err != nil && isTransactionUnsupported(err) {
			err = reassign(ctx)
		}
	}
	if err != nil {
		logger.Error().Err(err).Str("from", oldEmail).Str("to", newEmail).Msg("Error reassigning enrollments")
		return 0, err
	}
	return moved, nil
}

// Count returns the number of enrollments
func (r *EnrollmentRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.enrollments.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("error counting enrollments: %w", err)
	}
	return n, nil
}
