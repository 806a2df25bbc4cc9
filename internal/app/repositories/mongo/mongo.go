// Package mongo implements the repositories on MongoDB.
package mongo

import (
	"strings"

	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/pkg/dberrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Index names created by db.EnsureIndexes
const (
	indexCourseCode     = "uniq_course_code"
	indexStudentID      = "uniq_student_id"
	indexStudentEmail   = "uniq_student_email"
	indexEnrollmentPair = "uniq_enrollment_pair"
)

// isDuplicateOn reports an E11000 error raised by the named index. The server
// names the index in the error message.
func isDuplicateOn(err error, index string) bool {
	return dberrors.IsMongoDuplicateKey(err) && strings.Contains(err.Error(), index)
}

// parseObjectID returns the ObjectID for hex and whether it is well formed
func parseObjectID(hex string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// NewRepositories wires all repositories onto one database
func NewRepositories(database *db.MongoDB) *repositories.Repositories {
	return &repositories.Repositories{
		Students:    NewStudentRepository(database),
		Courses:     NewCourseRepository(database),
		Enrollments: NewEnrollmentRepository(database),
		Ping:        database.Ping,
	}
}
