package course

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/nbinstitution/lms-client-go/internal/features/auth"
	"github.com/nbinstitution/lms-client-go/internal/middleware"
)

// RegisterRoutes mounts the catalog and progress endpoints. Catalog reads are
// open, progress requires a session, and every mutation is admin-gated.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, manager *auth.Manager, logger *slog.Logger) {
	courses := router.Group("/courses")

	courses.GET("", middleware.AttachSession(manager), handler.List)
	courses.GET("/:courseId", middleware.AttachSession(manager), handler.GetByID)

	session := courses.Group("")
	session.Use(middleware.RequireSession(manager, logger))
	{
		session.POST("/:courseId/lessons/:lessonId/complete", handler.Complete)
		session.GET("/:courseId/progress", handler.CourseProgress)
	}

	admin := courses.Group("")
	admin.Use(middleware.RequireSession(manager, logger), middleware.RequireAdmin(manager, logger))
	{
		admin.POST("", handler.Create)
		admin.PUT("/:courseId", handler.Update)
		admin.DELETE("/:courseId", handler.Delete)
		admin.POST("/:courseId/lessons", handler.AddLesson)
		admin.PUT("/:courseId/lessons/:lessonId", handler.UpdateLesson)
		admin.DELETE("/:courseId/lessons/:lessonId", handler.DeleteLesson)
	}

	me := router.Group("/me")
	me.Use(middleware.RequireSession(manager, logger))
	{
		me.GET("/progress", handler.MyProgress)
	}
}
