package course

import "errors"

var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrTitleRequired     = errors.New("course title is required")
	ErrNegativePrice     = errors.New("course price cannot be negative")
	ErrInvalidLessonType = errors.New("unknown lesson type")
)
