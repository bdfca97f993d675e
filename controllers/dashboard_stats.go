package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"enquiry-server/models"
	"enquiry-server/repository"
	"enquiry-server/service"
	"enquiry-server/utils"
)

// GetDashboardStats 获取数据看板统计信息
// 按当天日期统计各跟进分类数量，以及各状态询盘数量
func GetDashboardStats(c *gin.Context) {
	today := c.DefaultQuery("date", time.Now().Format(service.DateLayout))

	ctx := repository.GetContext()
	followUps := repository.Collection(repository.FollowUpsCollection)
	enquiries := repository.Collection(repository.EnquiriesCollection)

	buckets := []string{
		models.BucketToday,
		models.BucketUpcoming,
		models.BucketMissed,
		models.BucketDropped,
		models.BucketCompleted,
	}

	followUpStats := make(map[string]int64)
	for _, bucket := range buckets {
		filter, err := service.BuildBucketFilter(bucket, today)
		if err != nil {
			utils.HandleError(c, err)
			return
		}

		count, err := followUps.CountDocuments(ctx, filter)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		followUpStats[bucket] = count
	}

	statuses := []string{
		models.EnquiryStatusNew,
		models.EnquiryStatusInProgress,
		models.EnquiryStatusConverted,
		models.EnquiryStatusDropped,
	}

	enquiryStats := make(map[string]int64)
	for _, status := range statuses {
		count, err := enquiries.CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		enquiryStats[status] = count
	}

	totalEnquiries, err := enquiries.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"date":           today,
			"followUps":      followUpStats,
			"enquiries":      enquiryStats,
			"totalEnquiries": totalEnquiries,
		},
	})
}
