package course

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nbinstitution/lms-client-go/internal/features/user"
	"github.com/nbinstitution/lms-client-go/internal/middleware"
	"github.com/nbinstitution/lms-client-go/pkg/apperrors"
	"github.com/nbinstitution/lms-client-go/pkg/metrics"
	"github.com/nbinstitution/lms-client-go/pkg/pagination"
	"github.com/nbinstitution/lms-client-go/pkg/response"
)

// Handler processes course and progress HTTP requests.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler constructs a course handler instance.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type lessonRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Type        LessonType `json:"type" binding:"required"`
	Content     string     `json:"content"`
	Duration    int        `json:"duration"`
	Order       int        `json:"order"`
}

func (r lessonRequest) input() LessonInput {
	return LessonInput{
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Content:     r.Content,
		Duration:    r.Duration,
		Order:       r.Order,
	}
}

// List returns the catalog, filtered and paginated. Unpublished courses are
// visible to admin sessions only.
func (h *Handler) List(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)
	isAdmin := session != nil && session.Role == user.RoleAdmin

	keyword := strings.ToLower(strings.TrimSpace(c.Query("filterKeyword")))
	category := strings.TrimSpace(c.Query("category"))

	filtered := make([]Course, 0)
	for _, crs := range h.store.Courses() {
		if !crs.Published && !isAdmin {
			continue
		}
		if category != "" && !strings.EqualFold(crs.Category, category) {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(crs.Title), keyword) &&
			!strings.Contains(strings.ToLower(crs.Description), keyword) {
			continue
		}
		crs.Lessons = crs.SortedLessons()
		filtered = append(filtered, crs)
	}

	params := pagination.Extract(c)
	from, to := params.Slice(len(filtered))
	response.Success(c, http.StatusOK, filtered[from:to], "", pagination.MetadataFrom(len(filtered), params))
}

// GetByID returns a single course with display-ordered lessons.
func (h *Handler) GetByID(c *gin.Context) {
	crs, ok := h.store.Get(c.Param("courseId"))
	if !ok {
		h.writeStoreError(c, ErrCourseNotFound)
		return
	}

	// Unpublished courses read as absent to everyone but admins.
	session, _ := middleware.SessionFromContext(c)
	if !crs.Published && (session == nil || session.Role != user.RoleAdmin) {
		h.writeStoreError(c, ErrCourseNotFound)
		return
	}

	crs.Lessons = crs.SortedLessons()
	response.OK(c, crs, "")
}

// Create inserts a new course.
func (h *Handler) Create(c *gin.Context) {
	var req struct {
		Title       string          `json:"title" binding:"required"`
		Description string          `json:"description"`
		Instructor  string          `json:"instructor"`
		Thumbnail   string          `json:"thumbnail"`
		Category    string          `json:"category"`
		Price       decimal.Decimal `json:"price"`
		Published   bool            `json:"published"`
		Lessons     []lessonRequest `json:"lessons"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	input := CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
		Thumbnail:   req.Thumbnail,
		Category:    req.Category,
		Price:       req.Price,
		Published:   req.Published,
	}
	for _, lesson := range req.Lessons {
		input.Lessons = append(input.Lessons, lesson.input())
	}

	created, err := h.store.CreateCourse(c.Request.Context(), input)
	metrics.ObserveOperation("createCourse", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.Created(c, created, "Course created successfully")
}

// Update merges the supplied fields over an existing course.
func (h *Handler) Update(c *gin.Context) {
	var req struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Instructor  *string          `json:"instructor"`
		Thumbnail   *string          `json:"thumbnail"`
		Category    *string          `json:"category"`
		Price       *decimal.Decimal `json:"price"`
		Published   *bool            `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	updated, err := h.store.UpdateCourse(c.Request.Context(), c.Param("courseId"), UpdateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
		Thumbnail:   req.Thumbnail,
		Category:    req.Category,
		Price:       req.Price,
		Published:   req.Published,
	})
	metrics.ObserveOperation("updateCourse", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.OK(c, updated, "Course updated successfully")
}

// Delete removes a course and its progress records.
func (h *Handler) Delete(c *gin.Context) {
	err := h.store.DeleteCourse(c.Request.Context(), c.Param("courseId"))
	metrics.ObserveOperation("deleteCourse", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.OK(c, nil, "Course deleted successfully")
}

// AddLesson appends a lesson to a course.
func (h *Handler) AddLesson(c *gin.Context) {
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	added, err := h.store.AddLesson(c.Request.Context(), c.Param("courseId"), req.input())
	metrics.ObserveOperation("addLesson", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.Created(c, added, "Lesson added successfully")
}

// UpdateLesson merges the supplied fields over an existing lesson.
func (h *Handler) UpdateLesson(c *gin.Context) {
	var req struct {
		Title       *string     `json:"title"`
		Description *string     `json:"description"`
		Type        *LessonType `json:"type"`
		Content     *string     `json:"content"`
		Duration    *int        `json:"duration"`
		Order       *int        `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	updated, err := h.store.UpdateLesson(c.Request.Context(), c.Param("courseId"), c.Param("lessonId"), UpdateLessonInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Content:     req.Content,
		Duration:    req.Duration,
		Order:       req.Order,
	})
	metrics.ObserveOperation("updateLesson", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.OK(c, updated, "Lesson updated successfully")
}

// DeleteLesson removes a lesson and prunes it from completed sets.
func (h *Handler) DeleteLesson(c *gin.Context) {
	err := h.store.DeleteLesson(c.Request.Context(), c.Param("courseId"), c.Param("lessonId"))
	metrics.ObserveOperation("deleteLesson", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.OK(c, nil, "Lesson deleted successfully")
}

// Complete marks a lesson complete for the session user.
func (h *Handler) Complete(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.")
		return
	}

	record, err := h.store.MarkLessonComplete(c.Request.Context(), session.UserID, c.Param("courseId"), c.Param("lessonId"))
	metrics.ObserveOperation("markLessonComplete", err)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	response.OK(c, record, "Progress updated")
}

// CourseProgress returns the session user's record for one course. An empty
// body means no progress yet.
func (h *Handler) CourseProgress(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.")
		return
	}

	record, found := h.store.Progress(session.UserID, c.Param("courseId"))
	if !found {
		response.OK(c, nil, "")
		return
	}
	response.OK(c, record, "")
}

// MyProgress returns every progress record for the session user, the data
// behind the "My Learning" view.
func (h *Handler) MyProgress(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.")
		return
	}

	response.OK(c, h.store.ProgressForUser(session.UserID), "")
}

// writeStoreError classifies store sentinels into transport errors and
// renders them.
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrLessonNotFound):
		err = apperrors.Wrap(err, err.Error(), http.StatusNotFound, apperrors.ErrNotFound)
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrNegativePrice), errors.Is(err, ErrInvalidLessonType):
		err = apperrors.Wrap(err, err.Error(), http.StatusBadRequest, apperrors.ErrValidation)
	default:
		err = apperrors.Wrap(err, "course operation failed", http.StatusInternalServerError, apperrors.ErrInternal)
	}
	response.WriteAppError(h.logger, c, err)
}
