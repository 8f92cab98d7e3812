package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// Router holds everything the HTTP routes need.
type Router struct {
	Auth      *AuthHandler
	Teams     *TeamHandler
	Tasks     *TaskHandler
	Realtime  *RealtimeHandler
	Verifier  middleware.TokenVerifier
	TeamSvc   *services.TeamService
	TaskSvc   *services.TaskService
	UploadDir string
}

// Register mounts the API, the websocket endpoint and stored uploads on r.
func (rt Router) Register(r *gin.Engine) {
	requireAuth := middleware.RequireAuth(rt.Verifier)

	if rt.UploadDir != "" {
		r.Static("/uploads", rt.UploadDir)
	}

	if rt.Realtime != nil {
		r.GET("/ws", middleware.RequireSocketAuth(rt.Verifier), rt.Realtime.Connect)
	}

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", rt.Auth.Signup)
			auth.POST("/login", rt.Auth.Login)
			auth.POST("/logout", rt.Auth.Logout)
			auth.GET("/me", requireAuth, rt.Auth.GetCurrentUser)
			auth.GET("/token", requireAuth, rt.Auth.IssueToken)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.POST("", rt.Teams.CreateTeam)
			teams.GET("", rt.Teams.ListTeams)
			teams.POST("/join", rt.Teams.JoinTeam)
			teams.GET("/:id", middleware.RequireTeamMember(rt.TeamSvc), rt.Teams.GetTeam)
			teams.POST("/:id/leave", middleware.RequireTeamMember(rt.TeamSvc), rt.Teams.LeaveTeam)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", rt.Tasks.ListTasks)
			tasks.POST("", rt.Tasks.CreateTask)
			tasks.POST("/draft", rt.Tasks.DraftTasks)
			tasks.DELETE("/clear", rt.Tasks.ClearTasks)
			tasks.GET("/:id", middleware.RequireTaskAccess(rt.TaskSvc), rt.Tasks.GetTask)
			tasks.PATCH("/:id", rt.Tasks.UpdateTask)
			tasks.DELETE("/:id", rt.Tasks.DeleteTask)
			tasks.PUT("/:id/attachments/rename", rt.Tasks.RenameAttachment)
			tasks.DELETE("/:id/attachments", rt.Tasks.DeleteAttachment)
		}
	}
}
