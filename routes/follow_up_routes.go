package routes

import (
	"github.com/gin-gonic/gin"

	"enquiry-server/controllers"
	"enquiry-server/middleware"
)

// RegisterFollowUpRoutes 注册跟进记录相关路由
func RegisterFollowUpRoutes(router *gin.Engine) {
	followUpGroup := router.Group("/api/followUps")
	followUpGroup.Use(middleware.AuthMiddleware())

	// 按分类获取跟进记录列表
	followUpGroup.GET("/", controllers.GetFollowUpList)

	// 新增跟进记录
	followUpGroup.POST("/", controllers.CreateFollowUp)

	// 处理跟进结果并同步询盘状态
	followUpGroup.PUT("/:id/resolve", controllers.ResolveFollowUp)

	// 获取某个询盘的跟进历史
	followUpGroup.GET("/history/:enqNo", controllers.GetFollowUpHistory)
}
