package handlers

import (
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const serviceName = "dump-practice-service"

type HandlerManager struct {
	authService services.AuthService
	logger      utils.Logger
	checks      map[string]HealthCheck

	authHandler     *AuthHandler
	dumpHandler     *DumpHandler
	quizHandler     *QuizHandler
	historyHandler  *HistoryHandler
	groupHandler    *GroupHandler
	categoryHandler *CategoryHandler
	userHandler     *UserHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	checks map[string]HealthCheck,
) *HandlerManager {
	return &HandlerManager{
		authService: serviceManager.Auth(),
		logger:      logger,
		checks:      checks,

		authHandler:     NewAuthHandler(serviceManager.Auth(), logger),
		dumpHandler:     NewDumpHandler(serviceManager.Dump(), serviceManager.ImportExport(), logger),
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), logger),
		historyHandler:  NewHistoryHandler(serviceManager.History(), logger),
		groupHandler:    NewGroupHandler(serviceManager.Group(), logger),
		categoryHandler: NewCategoryHandler(serviceManager.Category(), logger),
		userHandler:     NewUserHandler(serviceManager.User(), logger),
	}
}

// NewRouter builds the gin engine with the shared middleware stack
func (hm *HandlerManager) NewRouter(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}

	router.Use(
		gin.Recovery(),
		utils.RequestID(),
		utils.ContextLogger(hm.logger),
		utils.LoggerMiddleware(hm.logger),
		cors.New(corsConfig),
	)

	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", Health(serviceName, hm.checks))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", hm.authHandler.Register)
			authRoutes.POST("/login", hm.authHandler.Login)
		}
		v1.GET("/categories", hm.categoryHandler.ListCategories)
		v1.GET("/categories/:id", hm.categoryHandler.GetCategory)

		protected := v1.Group("")
		protected.Use(AuthMiddleware(hm.authService))
		{
			protected.GET("/auth/me", hm.authHandler.Me)

			// Dump routes
			dumps := protected.Group("/dumps")
			{
				dumps.POST("", hm.dumpHandler.CreateDump)
				dumps.GET("", hm.dumpHandler.ListDumps)
				dumps.POST("/import", hm.dumpHandler.ImportNewDump)
				dumps.GET("/import/template", hm.dumpHandler.ImportTemplate)
				dumps.GET("/:id", hm.dumpHandler.GetDump)
				dumps.PUT("/:id", hm.dumpHandler.UpdateDump)
				dumps.DELETE("/:id", hm.dumpHandler.DeleteDump)

				// Question authoring
				dumps.POST("/:id/questions", hm.dumpHandler.AddQuestion)
				dumps.PUT("/:id/questions/:question_id", hm.dumpHandler.UpdateQuestion)
				dumps.DELETE("/:id/questions/:question_id", hm.dumpHandler.DeleteQuestion)

				// Sharing management
				dumps.GET("/:id/shares", hm.dumpHandler.GetShares)
				dumps.POST("/:id/shares", hm.dumpHandler.ShareDump)
				dumps.DELETE("/:id/shares/:group_id", hm.dumpHandler.UnshareDump)

				// Spreadsheet import and export
				dumps.POST("/:id/import", hm.dumpHandler.ImportQuestions)
				dumps.GET("/:id/export", hm.dumpHandler.ExportDump)
				dumps.GET("/:id/imports", hm.dumpHandler.ListImports)
			}

			// Quiz session routes
			sessions := protected.Group("/sessions")
			{
				sessions.POST("", hm.quizHandler.StartSession)
				sessions.GET("", hm.quizHandler.ListSessions)
				sessions.GET("/:id", hm.quizHandler.GetSession)
				sessions.DELETE("/:id", hm.quizHandler.AbandonSession)
				sessions.POST("/:id/select", hm.quizHandler.SelectOption)
				sessions.PUT("/:id/short-answer", hm.quizHandler.SetShortAnswer)
				sessions.PUT("/:id/html", hm.quizHandler.SetHTMLField)
				sessions.POST("/:id/navigate", hm.quizHandler.Navigate)
				sessions.POST("/:id/finish", hm.quizHandler.Finish)
				sessions.POST("/:id/review", hm.quizHandler.EnterReview)
				sessions.DELETE("/:id/review", hm.quizHandler.ExitReview)
			}

			// Attempt history routes
			history := protected.Group("/history")
			{
				history.GET("", hm.historyHandler.ListHistory)
				history.GET("/:id", hm.historyHandler.GetHistory)
				history.DELETE("/:id", hm.historyHandler.DeleteHistory)
			}

			// Group routes
			groups := protected.Group("/groups")
			{
				groups.POST("", hm.groupHandler.CreateGroup)
				groups.GET("", hm.groupHandler.ListMyGroups)
				groups.GET("/:id", hm.groupHandler.GetGroup)
				groups.DELETE("/:id", hm.groupHandler.DeleteGroup)
				groups.POST("/:id/members", hm.groupHandler.AddMember)
				groups.DELETE("/:id/members/:user_id", hm.groupHandler.RemoveMember)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(AdminMiddleware())
			{
				admin.GET("/users", hm.userHandler.ListUsers)
				admin.GET("/users/:id", hm.userHandler.GetUser)
				admin.PUT("/users/:id/role", hm.userHandler.UpdateRole)
				admin.PUT("/users/:id/active", hm.userHandler.SetActive)
				admin.DELETE("/users/:id", hm.userHandler.DeleteUser)

				admin.GET("/groups", hm.groupHandler.ListAllGroups)

				admin.POST("/categories", hm.categoryHandler.CreateCategory)
				admin.PUT("/categories/:id", hm.categoryHandler.UpdateCategory)
				admin.DELETE("/categories/:id", hm.categoryHandler.DeleteCategory)
			}
		}
	}
}
