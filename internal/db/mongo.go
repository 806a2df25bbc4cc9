package db

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspulse/campuspulse/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	CollectionStudents    = "students"
	CollectionCourses     = "courses"
	CollectionEnrollments = "enrollments"
)

// EmailCollation compares strings ignoring case. Indexes and queries keyed by
// student email use it so documents stored with mixed-case addresses still
// match the lowercase form the services look up.
var EmailCollation = &options.Collation{Locale: "en", Strength: 2}

// MongoDB holds a connected client and the application database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongoDB connects to MongoDB and ensures the unique indexes exist
func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetMaxPoolSize(uint64(cfg.Database.MaxOpenConns)).
		SetMinPoolSize(uint64(cfg.Database.MaxIdleConns))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	m := &MongoDB{Client: client, Database: client.Database(cfg.Mongo.Database)}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

// EnsureIndexes creates the unique indexes that back the uniqueness rules
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionCourses: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_course_code")},
		},
		CollectionStudents: {
			{Keys: bson.D{{Key: "studentId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_student_id")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_student_email").SetCollation(EmailCollation)},
		},
		CollectionEnrollments: {
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_enrollment_pair").SetCollation(EmailCollation)},
			{Keys: bson.D{{Key: "courseId", Value: 1}}, Options: options.Index().SetName("idx_enrollment_course")},
		},
	}

	for coll, models := range indexes {
		if _, err := m.Database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Ping checks the connection
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
