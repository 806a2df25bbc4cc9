package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type courseDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Code        string             `bson:"code"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Credits     int                `bson:"credits"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	Enrolled    int                `bson:"studentsEnrolled,omitempty"`
}

func (d *courseDocument) toModel() *models.Course {
	return &models.Course{
		ID:               d.ID.Hex(),
		Code:             d.Code,
		Title:            d.Title,
		Description:      d.Description,
		Credits:          d.Credits,
		StudentsEnrolled: d.Enrolled,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// CourseRepository handles course documents
type CourseRepository struct {
	client      *mongo.Client
	courses     *mongo.Collection
	enrollments *mongo.Collection
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(database *db.MongoDB) *CourseRepository {
	return &CourseRepository{
		client:      database.Client,
		courses:     database.Database.Collection(db.CollectionCourses),
		enrollments: database.Database.Collection(db.CollectionEnrollments),
	}
}

// withEnrollmentCount appends the stages that derive studentsEnrolled from
// the enrollments collection.
func withEnrollmentCount(stages ...bson.D) mongo.Pipeline {
	pipeline := mongo.Pipeline(stages)
	return append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.CollectionEnrollments},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "courseId"},
			{Key: "as", Value: "enrolled"},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "studentsEnrolled", Value: bson.D{{Key: "$size", Value: "$enrolled"}}},
		}}},
		bson.D{{Key: "$unset", Value: "enrolled"}},
	)
}

func (r *CourseRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*models.Course, error) {
	cursor, err := r.courses.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	courses := []*models.Course{}
	for cursor.Next(ctx) {
		var doc courseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		courses = append(courses, doc.toModel())
	}
	return courses, cursor.Err()
}

// GetAll retrieves every course ordered by code
func (r *CourseRepository) GetAll(ctx context.Context) ([]*models.Course, error) {
	courses, err := r.aggregate(ctx, withEnrollmentCount(bson.D{{Key: "$sort", Value: bson.D{{Key: "code", Value: 1}}}}))
	if err != nil {
		logger.Error().Err(err).Msg("Error aggregating courses")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	return courses, nil
}

// GetByID retrieves a course by id
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return r.getByID(ctx, oid)
}

func (r *CourseRepository) getByID(ctx context.Context, oid primitive.ObjectID) (*models.Course, error) {
	courses, err := r.aggregate(ctx, withEnrollmentCount(bson.D{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}}))
	if err != nil {
		logger.Error().Err(err).Str("courseID", oid.Hex()).Msg("Error getting course by ID")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}
	if len(courses) == 0 {
		return nil, apperrors.ErrCourseNotFound
	}
	return courses[0], nil
}

// Create inserts a course and fills in its id and timestamps
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	doc := courseDocument{
		ID:          primitive.NewObjectID(),
		Code:        course.Code,
		Title:       course.Title,
		Description: course.Description,
		Credits:     course.Credits,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.courses.InsertOne(ctx, doc); err != nil {
		if isDuplicateOn(err, indexCourseCode) {
			return apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error inserting course")
		return fmt.Errorf("error creating course: %w", err)
	}

	course.ID = doc.ID.Hex()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.StudentsEnrolled = 0
	return nil
}

// Update replaces all editable fields and returns the stored document
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (*models.Course, error) {
	oid, ok := parseObjectID(course.ID)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}

	set := bson.D{
		{Key: "code", Value: course.Code},
		{Key: "title", Value: course.Title},
		{Key: "credits", Value: course.Credits},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	var update bson.D
	if course.Description == "" {
		update = bson.D{
			{Key: "$set", Value: set},
			{Key: "$unset", Value: bson.D{{Key: "description", Value: ""}}},
		}
	} else {
		set = append(set, bson.E{Key: "description", Value: course.Description})
		update = bson.D{{Key: "$set", Value: set}}
	}

	res, err := r.courses.UpdateByID(ctx, oid, update)
	if err != nil {
		if isDuplicateOn(err, indexCourseCode) {
			return nil, apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Str("courseID", course.ID).Msg("Error updating course")
		return nil, fmt.Errorf("error updating course: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, apperrors.ErrCourseNotFound
	}

	return r.getByID(ctx, oid)
}

// Delete removes the course's enrollments and then the course. A replica set
// runs both inside one transaction; a standalone server runs them in order.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	oid, ok := parseObjectID(id)
	if !ok {
		return apperrors.ErrCourseNotFound
	}

	cascade := func(ctx context.Context) error {
		removed, err := r.enrollments.DeleteMany(ctx, bson.D{{Key: "courseId", Value: oid}})
		if err != nil {
			return fmt.Errorf("error deleting course enrollments: %w", err)
		}
		res, err := r.courses.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
		if err != nil {
			return fmt.Errorf("error deleting course: %w", err)
		}
		if res.DeletedCount == 0 {
			return apperrors.ErrCourseNotFound
		}
		logger.Debug().Str("courseID", id).Int64("enrollmentsRemoved", removed.DeletedCount).Msg("Course deleted")
		return nil
	}

	session, err := r.client.StartSession()
	if err != nil {
		return cascade(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, cascade(sc)
	})
	if err != nil && isTransactionUnsupported(err) {
		return cascade(ctx)
	}
	if err != nil && !errors.Is(err, apperrors.ErrCourseNotFound) {
		logger.Error().Err(err).Str("courseID", id).Msg("Error deleting course")
	}
	return err
}

// isTransactionUnsupported reports the error a standalone server returns for
// multi-document transactions (IllegalOperation).
func isTransactionUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 20
}

// Count returns the number of courses
func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.courses.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("error counting courses: %w", err)
	}
	return n, nil
}
