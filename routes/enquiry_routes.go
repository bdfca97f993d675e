package routes

import (
	"github.com/gin-gonic/gin"

	"enquiry-server/controllers"
	"enquiry-server/middleware"
)

// RegisterEnquiryRoutes 注册询盘相关路由
func RegisterEnquiryRoutes(router *gin.Engine) {
	enquiryGroup := router.Group("/api/enquiries")
	enquiryGroup.Use(middleware.AuthMiddleware())

	// 创建询盘（自动分配编号并播种初始跟进）
	enquiryGroup.POST("/", controllers.CreateEnquiry)

	// 获取询盘列表
	enquiryGroup.GET("/", controllers.GetEnquiryList)

	// 获取询盘详情
	enquiryGroup.GET("/:id", controllers.GetEnquiry)

	// 删除询盘及其跟进记录
	enquiryGroup.DELETE("/:id", controllers.DeleteEnquiry)
}
