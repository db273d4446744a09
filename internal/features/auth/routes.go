package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches auth endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	group := router.Group("/auth")

	group.POST("/login", handler.Login)
	group.POST("/register", handler.Register)
	group.POST("/logout", handler.Logout)
	group.GET("/session", handler.Session)
}
