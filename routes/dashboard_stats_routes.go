package routes

import (
	"github.com/gin-gonic/gin"

	"enquiry-server/controllers"
	"enquiry-server/middleware"
)

// RegisterDashboardStatsRoutes 注册数据看板路由
func RegisterDashboardStatsRoutes(router *gin.Engine) {
	dashboardGroup := router.Group("/api/dashboard")
	dashboardGroup.Use(middleware.AuthMiddleware())

	dashboardGroup.GET("/stats", controllers.GetDashboardStats)
}
