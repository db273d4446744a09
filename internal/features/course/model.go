package course

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LessonType selects which content-rendering variant applies. The set is
// closed; Valid and rendering code switch exhaustively on it.
type LessonType string

const (
	LessonTypeVideo LessonType = "video"
	LessonTypePDF   LessonType = "pdf"
	LessonTypeText  LessonType = "text"
)

// Valid reports whether t is a known lesson type.
func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeVideo, LessonTypePDF, LessonTypeText:
		return true
	}
	return false
}

// Lesson is a content unit embedded in a course. Content is a URL for video
// and pdf lessons and inline text for text lessons. Duration is minutes and
// only meaningful for videos. Order is user-assigned; duplicates are allowed
// and ties keep insertion order.
type Lesson struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        LessonType `json:"type"`
	Content     string     `json:"content"`
	Duration    int        `json:"duration,omitempty"`
	Order       int        `json:"order"`
}

// Course is a catalog entry owning its embedded lessons.
type Course struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Instructor  string          `json:"instructor"`
	Thumbnail   string          `json:"thumbnail"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Published   bool            `json:"published"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Lessons     []Lesson        `json:"lessons"`
}

// SortedLessons returns the lessons ordered ascending by their Order field,
// ties keeping insertion order. This is the display convention; the store
// itself keeps insertion order.
func (c *Course) SortedLessons() []Lesson {
	sorted := make([]Lesson, len(c.Lessons))
	copy(sorted, c.Lessons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// UserProgress is the completion state for one (user, course) pair. At most
// one record exists per pair. CompletedLessons is insertion-ordered and
// duplicate-free. PercentComplete is denormalized at mutation time.
type UserProgress struct {
	UserID           string    `json:"userId"`
	CourseID         string    `json:"courseId"`
	CompletedLessons []string  `json:"completedLessons"`
	LastAccessed     time.Time `json:"lastAccessed"`
	PercentComplete  float64   `json:"percentComplete"`
}

// CreateCourseInput carries data for creating a new course.
type CreateCourseInput struct {
	Title       string
	Description string
	Instructor  string
	Thumbnail   string
	Category    string
	Price       decimal.Decimal
	Published   bool
	Lessons     []LessonInput
}

// LessonInput carries data for a new lesson.
type LessonInput struct {
	Title       string
	Description string
	Type        LessonType
	Content     string
	Duration    int
	Order       int
}

// UpdateCourseInput captures mutable course fields. Nil pointers leave the
// existing value untouched.
type UpdateCourseInput struct {
	Title       *string
	Description *string
	Instructor  *string
	Thumbnail   *string
	Category    *string
	Price       *decimal.Decimal
	Published   *bool
}

// UpdateLessonInput captures mutable lesson fields.
type UpdateLessonInput struct {
	Title       *string
	Description *string
	Type        *LessonType
	Content     *string
	Duration    *int
	Order       *int
}
