package mongo

import (
	"testing"

	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: campuspulse.students index: " + index + " dup key: { }",
	}}}
}

func TestIsDuplicateOn(t *testing.T) {
	err := duplicateKeyError(indexStudentEmail)

	assert.True(t, isDuplicateOn(err, indexStudentEmail))
	assert.False(t, isDuplicateOn(err, indexStudentID))
	assert.False(t, isDuplicateOn(assert.AnError, indexStudentEmail))
}

func TestMapStudentWriteError(t *testing.T) {
	assert.ErrorIs(t, mapStudentWriteError(duplicateKeyError(indexStudentID)), apperrors.ErrStudentIDAlreadyExists)
	assert.ErrorIs(t, mapStudentWriteError(duplicateKeyError(indexStudentEmail)), apperrors.ErrEmailAlreadyExists)
	assert.Nil(t, mapStudentWriteError(assert.AnError))
}

func TestParseObjectID(t *testing.T) {
	_, ok := parseObjectID("6650f1c2a4b1e2d3c4f5a6b7")
	assert.True(t, ok)

	for _, id := range []string{"", "123", "not-an-object-id-at-all!"} {
		_, ok := parseObjectID(id)
		assert.False(t, ok, id)
	}
}
