package course

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func createTwoLessonCourse(t *testing.T, store *Store) Course {
	t.Helper()

	created, err := store.CreateCourse(context.Background(), CreateCourseInput{
		Title:      "Introduction to Digital Design",
		Instructor: "Jane Smith",
		Category:   "Design",
		Price:      decimal.NewFromFloat(49.99),
		Published:  true,
		Lessons: []LessonInput{
			{Title: "Understanding Color Theory", Type: LessonTypeVideo, Content: "https://example.com/videos/color-theory.mp4", Duration: 25, Order: 1},
			{Title: "Typography Fundamentals", Type: LessonTypeText, Content: "Typography is the art of arranging type...", Order: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Lessons, 2)
	return created
}

func TestCreateCourseAssignsIDsAndTimestamps(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, WithClock(func() time.Time { return fixed }))

	created := createTwoLessonCourse(t, store)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, fixed, created.CreatedAt)
	assert.Equal(t, fixed, created.UpdatedAt)
	for _, lesson := range created.Lessons {
		assert.Contains(t, lesson.ID, created.ID+"-", "lesson ids are namespaced under the course")
	}

	got, ok := store.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, created.Title, got.Title)

	_, ok = store.Get("absent")
	assert.False(t, ok)
}

func TestCreateCourseValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateCourse(ctx, CreateCourseInput{Title: ""})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = store.CreateCourse(ctx, CreateCourseInput{Title: "x", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = store.CreateCourse(ctx, CreateCourseInput{
		Title:   "x",
		Lessons: []LessonInput{{Title: "bad", Type: LessonType("audio")}},
	})
	assert.ErrorIs(t, err, ErrInvalidLessonType)
}

func TestUpdateCourseMergesFields(t *testing.T) {
	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := first
	store := newTestStore(t, WithClock(func() time.Time { return current }))

	created := createTwoLessonCourse(t, store)

	current = first.Add(time.Hour)
	title := "Digital Design Fundamentals"
	published := false
	updated, err := store.UpdateCourse(context.Background(), created.ID, UpdateCourseInput{
		Title:     &title,
		Published: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.False(t, updated.Published)
	assert.Equal(t, created.Instructor, updated.Instructor, "unspecified fields keep their value")
	assert.Equal(t, current, updated.UpdatedAt)
	assert.Equal(t, first, updated.CreatedAt)

	_, err = store.UpdateCourse(context.Background(), "absent", UpdateCourseInput{})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestAddUpdateDeleteLesson(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	added, err := store.AddLesson(ctx, created.ID, LessonInput{
		Title: "Layout Principles", Type: LessonTypePDF, Content: "https://example.com/pdfs/layout.pdf", Order: 3,
	})
	require.NoError(t, err)
	assert.Contains(t, added.ID, created.ID+"-")

	order := 0
	updated, err := store.UpdateLesson(ctx, created.ID, added.ID, UpdateLessonInput{Order: &order})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Order)

	got, _ := store.Get(created.ID)
	sorted := got.SortedLessons()
	assert.Equal(t, added.ID, sorted[0].ID, "lessons sort ascending by order")

	require.NoError(t, store.DeleteLesson(ctx, created.ID, added.ID))
	got, _ = store.Get(created.ID)
	assert.Len(t, got.Lessons, 2)

	_, err = store.UpdateLesson(ctx, created.ID, added.ID, UpdateLessonInput{})
	assert.ErrorIs(t, err, ErrLessonNotFound)
	_, err = store.AddLesson(ctx, "absent", LessonInput{Title: "x", Type: LessonTypeText})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestLessonOrderTiesKeepInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateCourse(ctx, CreateCourseInput{Title: "Ties"})
	require.NoError(t, err)

	a, err := store.AddLesson(ctx, created.ID, LessonInput{Title: "a", Type: LessonTypeText, Order: 1})
	require.NoError(t, err)
	b, err := store.AddLesson(ctx, created.ID, LessonInput{Title: "b", Type: LessonTypeText, Order: 1})
	require.NoError(t, err)

	got, _ := store.Get(created.ID)
	sorted := got.SortedLessons()
	assert.Equal(t, []string{a.ID, b.ID}, []string{sorted[0].ID, sorted[1].ID})
}

func TestMarkLessonCompleteProgression(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	record, err := store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, record.PercentComplete)
	assert.Equal(t, []string{created.Lessons[0].ID}, record.CompletedLessons)

	record, err = store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, record.PercentComplete)
	assert.Len(t, record.CompletedLessons, 2)
}

func TestMarkLessonCompleteIsIdempotentOnCompletedSet(t *testing.T) {
	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := first
	store := newTestStore(t, WithClock(func() time.Time { return current }))
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	before, err := store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[0].ID)
	require.NoError(t, err)

	current = first.Add(time.Minute)
	after, err := store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[0].ID)
	require.NoError(t, err)

	assert.Equal(t, before.CompletedLessons, after.CompletedLessons)
	assert.Equal(t, before.PercentComplete, after.PercentComplete)
	assert.True(t, after.LastAccessed.After(before.LastAccessed), "re-marking still refreshes lastAccessed")
}

func TestMarkLessonCompleteRejectsUnknownTargets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	_, err := store.MarkLessonComplete(ctx, "u1", "absent", created.Lessons[0].ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = store.MarkLessonComplete(ctx, "u1", created.ID, "absent")
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, ok := store.Progress("u1", created.ID)
	assert.False(t, ok, "failed operations leave no partial record")
}

func TestDeleteLessonPrunesCompletedSets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	_, err := store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[0].ID)
	require.NoError(t, err)
	_, err = store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[1].ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteLesson(ctx, created.ID, created.Lessons[0].ID))

	record, ok := store.Progress("u1", created.ID)
	require.True(t, ok)
	assert.Equal(t, []string{created.Lessons[1].ID}, record.CompletedLessons)
	assert.Equal(t, 100.0, record.PercentComplete, "1 completed of 1 remaining")

	require.NoError(t, store.DeleteLesson(ctx, created.ID, created.Lessons[1].ID))
	record, _ = store.Progress("u1", created.ID)
	assert.Equal(t, 0.0, record.PercentComplete, "no lessons left means zero percent")
	assert.Empty(t, record.CompletedLessons)
}

func TestDeleteLessonLeavesUntouchedRecordsAlone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	// u2 completed only lesson 2; deleting lesson 1 must not rescale u2.
	_, err := store.MarkLessonComplete(ctx, "u2", created.ID, created.Lessons[1].ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteLesson(ctx, created.ID, created.Lessons[0].ID))

	record, ok := store.Progress("u2", created.ID)
	require.True(t, ok)
	assert.Equal(t, 50.0, record.PercentComplete)
}

func TestDeleteCourseCascadesProgress(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)
	other := createTwoLessonCourse(t, store)

	_, err := store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[0].ID)
	require.NoError(t, err)
	_, err = store.MarkLessonComplete(ctx, "u2", created.ID, created.Lessons[1].ID)
	require.NoError(t, err)
	_, err = store.MarkLessonComplete(ctx, "u1", other.ID, other.Lessons[0].ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteCourse(ctx, created.ID))

	_, ok := store.Get(created.ID)
	assert.False(t, ok)
	_, ok = store.Progress("u1", created.ID)
	assert.False(t, ok)
	_, ok = store.Progress("u2", created.ID)
	assert.False(t, ok)
	_, ok = store.Progress("u1", other.ID)
	assert.True(t, ok, "other courses' records survive")

	assert.ErrorIs(t, store.DeleteCourse(ctx, created.ID), ErrCourseNotFound)
}

func TestPercentStaysStaleWhenLessonsAreAdded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	_, err := store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[0].ID)
	require.NoError(t, err)
	_, err = store.MarkLessonComplete(ctx, "u1", created.ID, created.Lessons[1].ID)
	require.NoError(t, err)

	_, err = store.AddLesson(ctx, created.ID, LessonInput{Title: "new", Type: LessonTypeText, Order: 3})
	require.NoError(t, err)

	record, _ := store.Progress("u1", created.ID)
	assert.Equal(t, 100.0, record.PercentComplete, "percent is denormalized at mutation time")
}

func TestConcurrentCompletionsDoNotLoseUpdates(t *testing.T) {
	// The simulated latency opens a lost-update window between read and
	// write; the per-course queue must close it.
	store := newTestStore(t, WithLatency(20*time.Millisecond))
	ctx := context.Background()
	created := createTwoLessonCourse(t, store)

	var wg sync.WaitGroup
	for _, lesson := range created.Lessons {
		wg.Add(1)
		go func(lessonID string) {
			defer wg.Done()
			_, err := store.MarkLessonComplete(ctx, "u1", created.ID, lessonID)
			assert.NoError(t, err)
		}(lesson.ID)
	}
	wg.Wait()

	record, ok := store.Progress("u1", created.ID)
	require.True(t, ok)
	assert.Len(t, record.CompletedLessons, 2)
	assert.Equal(t, 100.0, record.PercentComplete)
}

func TestProgressForUserFollowsCatalogOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first := createTwoLessonCourse(t, store)
	second := createTwoLessonCourse(t, store)

	_, err := store.MarkLessonComplete(ctx, "u1", second.ID, second.Lessons[0].ID)
	require.NoError(t, err)
	_, err = store.MarkLessonComplete(ctx, "u1", first.ID, first.Lessons[0].ID)
	require.NoError(t, err)

	records := store.ProgressForUser("u1")
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].CourseID)
	assert.Equal(t, second.ID, records[1].CourseID)
}
