package course

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nbinstitution/lms-client-go/pkg/keyqueue"
)

type progressKey struct {
	UserID   string
	CourseID string
}

// Option configures a Store.
type Option func(*Store)

// WithLatency sets the simulated round-trip delay for catalog mutations.
// Progress marking uses half of it, matching the lighter call it models.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.delay = d
		s.progressDelay = d / 2
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Store owns the in-memory course catalog and the per-user progress records.
// Reads return defensive copies under a read lock. Every mutation is queued
// per courseId, so two near-simultaneous mutations on the same course cannot
// interleave around the simulated latency and lose an update.
type Store struct {
	logger        *slog.Logger
	queues        *keyqueue.Group
	delay         time.Duration
	progressDelay time.Duration
	now           func() time.Time
	newID         func() string

	mu       sync.RWMutex
	order    []string
	courses  map[string]*Course
	progress map[progressKey]*UserProgress
}

// NewStore creates an empty catalog.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		logger:   logger,
		queues:   keyqueue.New(),
		now:      time.Now,
		newID:    uuid.NewString,
		courses:  make(map[string]*Course),
		progress: make(map[progressKey]*UserProgress),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Courses returns the catalog in insertion order.
func (s *Store) Courses() []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Course, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, copyCourse(s.courses[id]))
	}
	return result
}

// Get looks up a course by id. Absence is not an error; callers must check
// the second return value.
func (s *Store) Get(id string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return Course{}, false
	}
	return copyCourse(c), true
}

// CourseCount reports the catalog size.
func (s *Store) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses)
}

// CreateCourse assigns a new id and timestamps and appends the course to the
// catalog.
func (s *Store) CreateCourse(_ context.Context, input CreateCourseInput) (Course, error) {
	if input.Title == "" {
		return Course{}, ErrTitleRequired
	}
	if input.Price.IsNegative() {
		return Course{}, ErrNegativePrice
	}
	for _, lesson := range input.Lessons {
		if !lesson.Type.Valid() {
			return Course{}, ErrInvalidLessonType
		}
	}

	id := s.newID()
	created := Course{}

	err := s.queues.Do(id, func() error {
		s.simulate(s.delay)

		now := s.now()
		c := &Course{
			ID:          id,
			Title:       input.Title,
			Description: input.Description,
			Instructor:  input.Instructor,
			Thumbnail:   input.Thumbnail,
			Category:    input.Category,
			Price:       input.Price,
			Published:   input.Published,
			CreatedAt:   now,
			UpdatedAt:   now,
			Lessons:     make([]Lesson, 0, len(input.Lessons)),
		}
		for _, lesson := range input.Lessons {
			c.Lessons = append(c.Lessons, s.buildLesson(id, lesson))
		}

		s.mu.Lock()
		s.courses[id] = c
		s.order = append(s.order, id)
		s.mu.Unlock()

		created = copyCourse(c)
		return nil
	})
	if err != nil {
		return Course{}, err
	}

	s.logger.Info("course created", slog.String("course_id", id), slog.String("title", created.Title))
	return created, nil
}

// UpdateCourse merges the supplied fields over the existing record and
// refreshes the updated timestamp.
func (s *Store) UpdateCourse(_ context.Context, id string, input UpdateCourseInput) (Course, error) {
	updated := Course{}

	err := s.queues.Do(id, func() error {
		s.simulate(s.delay)

		s.mu.Lock()
		defer s.mu.Unlock()

		c, ok := s.courses[id]
		if !ok {
			return ErrCourseNotFound
		}

		if input.Title != nil {
			if *input.Title == "" {
				return ErrTitleRequired
			}
			c.Title = *input.Title
		}
		if input.Description != nil {
			c.Description = *input.Description
		}
		if input.Instructor != nil {
			c.Instructor = *input.Instructor
		}
		if input.Thumbnail != nil {
			c.Thumbnail = *input.Thumbnail
		}
		if input.Category != nil {
			c.Category = *input.Category
		}
		if input.Price != nil {
			if input.Price.IsNegative() {
				return ErrNegativePrice
			}
			c.Price = *input.Price
		}
		if input.Published != nil {
			c.Published = *input.Published
		}
		c.UpdatedAt = s.now()

		updated = copyCourse(c)
		return nil
	})
	if err != nil {
		return Course{}, err
	}
	return updated, nil
}

// DeleteCourse removes the course and cascades deletion of every progress
// record referencing it.
func (s *Store) DeleteCourse(_ context.Context, id string) error {
	err := s.queues.Do(id, func() error {
		s.simulate(s.delay)

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.courses[id]; !ok {
			return ErrCourseNotFound
		}

		delete(s.courses, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		for key := range s.progress {
			if key.CourseID == id {
				delete(s.progress, key)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("course deleted", slog.String("course_id", id))
	return nil
}

// AddLesson appends a lesson to the course and refreshes the course's
// updated timestamp.
func (s *Store) AddLesson(_ context.Context, courseID string, input LessonInput) (Lesson, error) {
	if !input.Type.Valid() {
		return Lesson{}, ErrInvalidLessonType
	}

	added := Lesson{}
	err := s.queues.Do(courseID, func() error {
		s.simulate(s.delay)

		s.mu.Lock()
		defer s.mu.Unlock()

		c, ok := s.courses[courseID]
		if !ok {
			return ErrCourseNotFound
		}

		lesson := s.buildLesson(courseID, input)
		c.Lessons = append(c.Lessons, lesson)
		c.UpdatedAt = s.now()

		added = lesson
		return nil
	})
	if err != nil {
		return Lesson{}, err
	}
	return added, nil
}

// UpdateLesson merges the supplied fields over the existing lesson and
// refreshes the course's updated timestamp.
func (s *Store) UpdateLesson(_ context.Context, courseID, lessonID string, input UpdateLessonInput) (Lesson, error) {
	updated := Lesson{}

	err := s.queues.Do(courseID, func() error {
		s.simulate(s.delay)

		s.mu.Lock()
		defer s.mu.Unlock()

		c, ok := s.courses[courseID]
		if !ok {
			return ErrCourseNotFound
		}

		idx := lessonIndex(c, lessonID)
		if idx < 0 {
			return ErrLessonNotFound
		}
		lesson := &c.Lessons[idx]

		if input.Title != nil {
			lesson.Title = *input.Title
		}
		if input.Description != nil {
			lesson.Description = *input.Description
		}
		if input.Type != nil {
			if !input.Type.Valid() {
				return ErrInvalidLessonType
			}
			lesson.Type = *input.Type
		}
		if input.Content != nil {
			lesson.Content = *input.Content
		}
		if input.Duration != nil {
			lesson.Duration = *input.Duration
		}
		if input.Order != nil {
			lesson.Order = *input.Order
		}
		c.UpdatedAt = s.now()

		updated = *lesson
		return nil
	})
	if err != nil {
		return Lesson{}, err
	}
	return updated, nil
}

// DeleteLesson removes the lesson and prunes it from every completed set on
// the course, recomputing percentComplete against the reduced lesson count.
func (s *Store) DeleteLesson(_ context.Context, courseID, lessonID string) error {
	return s.queues.Do(courseID, func() error {
		s.simulate(s.delay)

		s.mu.Lock()
		defer s.mu.Unlock()

		c, ok := s.courses[courseID]
		if !ok {
			return ErrCourseNotFound
		}

		idx := lessonIndex(c, lessonID)
		if idx < 0 {
			return ErrLessonNotFound
		}
		c.Lessons = append(c.Lessons[:idx], c.Lessons[idx+1:]...)
		c.UpdatedAt = s.now()

		total := len(c.Lessons)
		for key, record := range s.progress {
			if key.CourseID != courseID || !contains(record.CompletedLessons, lessonID) {
				continue
			}
			record.CompletedLessons = remove(record.CompletedLessons, lessonID)
			if total > 0 {
				record.PercentComplete = float64(len(record.CompletedLessons)) / float64(total) * 100
			} else {
				record.PercentComplete = 0
			}
		}
		return nil
	})
}

// MarkLessonComplete records the lesson in the user's completed set,
// creating the progress record on first completion. Re-marking a completed
// lesson leaves the set and percentage unchanged but still refreshes
// LastAccessed. Completion order is the caller's business.
func (s *Store) MarkLessonComplete(_ context.Context, userID, courseID, lessonID string) (UserProgress, error) {
	result := UserProgress{}

	err := s.queues.Do(courseID, func() error {
		s.simulate(s.progressDelay)

		s.mu.Lock()
		defer s.mu.Unlock()

		c, ok := s.courses[courseID]
		if !ok {
			return ErrCourseNotFound
		}
		if lessonIndex(c, lessonID) < 0 {
			return ErrLessonNotFound
		}

		total := len(c.Lessons)
		key := progressKey{UserID: userID, CourseID: courseID}

		record, ok := s.progress[key]
		if !ok {
			record = &UserProgress{
				UserID:           userID,
				CourseID:         courseID,
				CompletedLessons: []string{lessonID},
				PercentComplete:  float64(1) / float64(total) * 100,
			}
			s.progress[key] = record
		} else if !contains(record.CompletedLessons, lessonID) {
			record.CompletedLessons = append(record.CompletedLessons, lessonID)
			record.PercentComplete = float64(len(record.CompletedLessons)) / float64(total) * 100
		}
		record.LastAccessed = s.now()

		result = copyProgress(record)
		return nil
	})
	if err != nil {
		return UserProgress{}, err
	}
	return result, nil
}

// Progress looks up the record for a (user, course) pair. Absence is not an
// error.
func (s *Store) Progress(userID, courseID string) (UserProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.progress[progressKey{UserID: userID, CourseID: courseID}]
	if !ok {
		return UserProgress{}, false
	}
	return copyProgress(record), true
}

// ProgressForUser returns every progress record the user has, in catalog
// order.
func (s *Store) ProgressForUser(userID string) []UserProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]UserProgress, 0)
	for _, courseID := range s.order {
		if record, ok := s.progress[progressKey{UserID: userID, CourseID: courseID}]; ok {
			result = append(result, copyProgress(record))
		}
	}
	return result
}

// ProgressCount reports the number of progress records.
func (s *Store) ProgressCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.progress)
}

// SeedCourse installs a course directly, keeping the caller's ids and
// timestamps. Used by bootstrap only; an existing id is overwritten.
func (s *Store) SeedCourse(c Course) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := copyCourse(&c)
	if _, exists := s.courses[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.courses[c.ID] = &copied
}

// SeedProgress installs a progress record directly, bypassing latency. Used
// by bootstrap only; the (user, course) uniqueness invariant still holds.
func (s *Store) SeedProgress(record UserProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := copyProgress(&record)
	s.progress[progressKey{UserID: record.UserID, CourseID: record.CourseID}] = &copied
}

func (s *Store) buildLesson(courseID string, input LessonInput) Lesson {
	return Lesson{
		// Lesson ids are namespaced under their parent course.
		ID:          courseID + "-" + s.newID(),
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Content:     input.Content,
		Duration:    input.Duration,
		Order:       input.Order,
	}
}

func (s *Store) simulate(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func lessonIndex(c *Course, lessonID string) int {
	for i := range c.Lessons {
		if c.Lessons[i].ID == lessonID {
			return i
		}
	}
	return -1
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	result := ids[:0]
	for _, existing := range ids {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}

func copyCourse(c *Course) Course {
	copied := *c
	copied.Lessons = make([]Lesson, len(c.Lessons))
	copy(copied.Lessons, c.Lessons)
	return copied
}

func copyProgress(p *UserProgress) UserProgress {
	copied := *p
	copied.CompletedLessons = make([]string, len(p.CompletedLessons))
	copy(copied.CompletedLessons, p.CompletedLessons)
	return copied
}
