package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		users.Use(r.authMw.RequireAuth())

		// Own profile, any verified account
		users.GET("/me", r.authMw.RequireVerifiedEmail(), r.userHandler.GetMe)

		// Operator endpoints
		admin := users.Group("")
		admin.Use(r.authMw.RequireAdmin())
		{
			admin.GET("", r.userHandler.ListUsers)
			admin.GET("/:id", r.userHandler.GetUser)
			admin.PUT("/:id", r.userHandler.UpdateUser)
			admin.POST("/:id/unlock", r.userHandler.UnlockUser)
		}
	}
}
