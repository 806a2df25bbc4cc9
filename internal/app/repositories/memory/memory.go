// Package memory implements the repositories in process memory. It backs the
// "memory" storage driver and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/google/uuid"
)

// Store holds all three collections behind one lock, so every operation,
// including the cascading course delete, is atomic.
type Store struct {
	mu          sync.RWMutex
	students    map[string]*models.Student
	courses     map[string]*models.Course
	enrollments []*models.Enrollment
	now         func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		students: make(map[string]*models.Student),
		courses:  make(map[string]*models.Course),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewRepositories wires all repositories onto one store
func NewRepositories(store *Store) *repositories.Repositories {
	return &repositories.Repositories{
		Students:    &StudentRepository{store: store},
		Courses:     &CourseRepository{store: store},
		Enrollments: &EnrollmentRepository{store: store},
		Ping:        func(context.Context) error { return nil },
	}
}

func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// enrolledCount must be called with the lock held
func (s *Store) enrolledCount(courseID string) int {
	n := 0
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			n++
		}
	}
	return n
}

// courseCopy must be called with the lock held
func (s *Store) courseCopy(c *models.Course) *models.Course {
	out := *c
	out.StudentsEnrolled = s.enrolledCount(c.ID)
	return &out
}

// CourseRepository is the in-memory course catalog
type CourseRepository struct {
	store *Store
}

// GetAll returns every course ordered by code
func (r *CourseRepository) GetAll(_ context.Context) ([]*models.Course, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	courses := make([]*models.Course, 0, len(r.store.courses))
	for _, c := range r.store.courses {
		courses = append(courses, r.store.courseCopy(c))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

// GetByID returns one course
func (r *CourseRepository) GetByID(_ context.Context, id string) (*models.Course, error) {
	key, ok := canonicalID(id)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.courses[key]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return r.store.courseCopy(c), nil
}

func (r *CourseRepository) codeTaken(code, excludeID string) bool {
	for _, c := range r.store.courses {
		if c.ID != excludeID && strings.EqualFold(c.Code, code) {
			return true
		}
	}
	return false
}

// Create stores a course
func (r *CourseRepository) Create(_ context.Context, course *models.Course) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.codeTaken(course.Code, "") {
		return apperrors.ErrCourseCodeExists
	}

	now := r.store.now()
	course.ID = uuid.NewString()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.StudentsEnrolled = 0

	stored := *course
	r.store.courses[course.ID] = &stored
	return nil
}

// Update replaces all editable fields
func (r *CourseRepository) Update(_ context.Context, course *models.Course) (*models.Course, error) {
	key, ok := canonicalID(course.ID)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.courses[key]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	if r.codeTaken(course.Code, key) {
		return nil, apperrors.ErrCourseCodeExists
	}

	existing.Code = course.Code
	existing.Title = course.Title
	existing.Description = course.Description
	existing.Credits = course.Credits
	existing.UpdatedAt = r.store.now()
	return r.store.courseCopy(existing), nil
}

// Delete removes the course's enrollments and then the course
func (r *CourseRepository) Delete(_ context.Context, id string) error {
	key, ok := canonicalID(id)
	if !ok {
		return apperrors.ErrCourseNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.courses[key]; !ok {
		return apperrors.ErrCourseNotFound
	}

	kept := r.store.enrollments[:0]
	for _, e := range r.store.enrollments {
		if e.CourseID != key {
			kept = append(kept, e)
		}
	}
	r.store.enrollments = kept
	delete(r.store.courses, key)
	return nil
}

// Count returns the number of courses
func (r *CourseRepository) Count(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.courses)), nil
}

// StudentRepository is the in-memory identity store
type StudentRepository struct {
	store *Store
}

// GetAll returns every student ordered by name
func (r *StudentRepository) GetAll(_ context.Context) ([]*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	students := make([]*models.Student, 0, len(r.store.students))
	for _, s := range r.store.students {
		cp := *s
		students = append(students, &cp)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

// GetByID returns one student
func (r *StudentRepository) GetByID(_ context.Context, id string) (*models.Student, error) {
	key, ok := canonicalID(id)
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.students[key]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	cp := *s
	return &cp, nil
}

// GetByEmail returns the student with email
func (r *StudentRepository) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.students {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

// conflict must be called with the lock held
func (r *StudentRepository) conflict(student *models.Student, excludeID string) error {
	for _, s := range r.store.students {
		if s.ID == excludeID {
			continue
		}
		if s.StudentID == student.StudentID {
			return apperrors.ErrStudentIDAlreadyExists
		}
		if s.Email == student.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	return nil
}

// Create stores a student
func (r *StudentRepository) Create(_ context.Context, student *models.Student) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.conflict(student, ""); err != nil {
		return err
	}

	now := r.store.now()
	student.ID = uuid.NewString()
	student.CreatedAt = now
	student.UpdatedAt = now

	stored := *student
	r.store.students[student.ID] = &stored
	return nil
}

// Update writes every field except the credential
func (r *StudentRepository) Update(_ context.Context, student *models.Student) error {
	key, ok := canonicalID(student.ID)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.students[key]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	if err := r.conflict(student, key); err != nil {
		return err
	}

	existing.StudentID = student.StudentID
	existing.Name = student.Name
	existing.Email = student.Email
	existing.Program = student.Program
	existing.UpdatedAt = r.store.now()
	student.UpdatedAt = existing.UpdatedAt
	return nil
}

// UpdateCredential replaces the stored credential
func (r *StudentRepository) UpdateCredential(_ context.Context, id string, credential auth.Credential) error {
	key, ok := canonicalID(id)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.students[key]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	existing.Credential = credential
	existing.UpdatedAt = r.store.now()
	return nil
}

// Delete removes a student and leaves its enrollments in place
func (r *StudentRepository) Delete(_ context.Context, id string) error {
	key, ok := canonicalID(id)
	if !ok {
		return apperrors.ErrStudentNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students[key]; !ok {
		return apperrors.ErrStudentNotFound
	}
	delete(r.store.students, key)
	return nil
}

// Count returns the number of students
func (r *StudentRepository) Count(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.students)), nil
}

// EnrollmentRepository is the in-memory enrollment ledger
type EnrollmentRepository struct {
	store *Store
}

// GetByStudent lists enrollments whose course still exists
func (r *EnrollmentRepository) GetByStudent(_ context.Context, studentEmail string) ([]*models.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*models.Enrollment{}
	for _, e := range r.store.enrollments {
		if e.StudentEmail != studentEmail {
			continue
		}
		c, ok := r.store.courses[e.CourseID]
		if !ok {
			continue
		}
		cp := *e
		cp.Course = c.Summary()
		out = append(out, &cp)
	}
	return out, nil
}

// Create records an enrollment
func (r *EnrollmentRepository) Create(_ context.Context, studentEmail, courseID string) (*models.Enrollment, error) {
	key, ok := canonicalID(courseID)
	if !ok {
		return nil, apperrors.ErrInvalidID
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.courses[key]; !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	for _, e := range r.store.enrollments {
		if e.StudentEmail == studentEmail && e.CourseID == key {
			return nil, apperrors.ErrAlreadyEnrolled
		}
	}

	e := &models.Enrollment{
		ID:             uuid.NewString(),
		StudentEmail:   studentEmail,
		CourseID:       key,
		EnrollmentDate: r.store.now(),
	}
	r.store.enrollments = append(r.store.enrollments, e)

	cp := *e
	return &cp, nil
}

// ReassignStudent drops enrollments still held by newEmail, then moves every
// enrollment of oldEmail onto newEmail
func (r *EnrollmentRepository) ReassignStudent(_ context.Context, oldEmail, newEmail string) (int64, error) {
	if oldEmail == newEmail {
		return 0, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var moved int64
	kept := r.store.enrollments[:0]
	for _, e := range r.store.enrollments {
		switch e.StudentEmail {
		case newEmail:
			continue
		case oldEmail:
			e.StudentEmail = newEmail
			moved++
		}
		kept = append(kept, e)
	}
	r.store.enrollments = kept
	return moved, nil
}

// Count returns the number of enrollments
func (r *EnrollmentRepository) Count(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.enrollments)), nil
}
