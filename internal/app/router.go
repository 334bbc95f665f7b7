package app

import (
	"coursewise_backend/docs"
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/middleware"
	"coursewise_backend/internal/model"

	"coursewise_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.student))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 学业档案
	rg.GET("/academic/profile", c.academic.GetAcademicProfile)
	rg.GET("/academic/standing", c.academic.GetStanding)
	rg.GET("/academic/specializations", c.academic.GetSpecializations)
	rg.GET("/grades", c.academic.GetGrades)

	// 课程目录与选课资格
	rg.GET("/courses", c.catalog.ListCourses)
	rg.GET("/courses/:code/eligibility", c.catalog.CheckEligibility)

	// 选课咨询会话
	advisor := rg.Group("/advisor")
	{
		advisor.GET("/session", c.advisor.GetSession)
		advisor.POST("/start", c.advisor.Start)
		advisor.POST("/registration", c.advisor.SubmitRegistration)
		advisor.POST("/grades", c.advisor.SubmitGrades)
		advisor.POST("/grades/confirm", c.advisor.ConfirmGrades)
		advisor.POST("/grades/reject", c.advisor.RejectGrades)
		advisor.POST("/preferences", c.advisor.SubmitPreferences)
		advisor.GET("/recommendation", c.advisor.GetRecommendation)
		advisor.POST("/recommendation/confirm", c.advisor.ConfirmRecommendation)
		advisor.POST("/reset", c.advisor.Reset)
		advisor.POST("/transcript", c.advisor.UploadTranscript)
	}

	// AI 问答
	rg.POST("/qa/ask", c.advisor.Ask)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.student))
	admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.POST("/curriculum/reload", c.catalog.ReloadCurriculum)
	}
}
