package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"enquiry-server/models"
	"enquiry-server/repository"
	"enquiry-server/service"
	"enquiry-server/utils"
)

// CreateEnquiry 创建询盘
// 分配顺序编号，并自动播种一条当天的初始跟进记录
func CreateEnquiry(c *gin.Context) {
	// 获取当前用户信息
	user, err := utils.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var input models.CreateEnquiryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	if !utils.IsValidPhone(input.Mobile) {
		utils.HandleError(c, utils.CreateBadRequestError("无效的手机号"))
		return
	}

	ctx := repository.GetContext()

	enqNo, err := service.NextEnquiryCode(ctx)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	now := time.Now()
	enquiry := &models.Enquiry{
		EnqNo:     enqNo,
		Name:      input.Name,
		Mobile:    input.Mobile,
		Image:     input.Image,
		Product:   input.Product,
		Cost:      service.ParseAmount(input.Cost),
		Status:    models.EnquiryStatusNew,
		Source:    input.Source,
		Address:   input.Address,
		CreatedAt: now,
	}

	if err := service.InsertEnquiry(ctx, enquiry); err != nil {
		utils.HandleError(c, err)
		return
	}

	// 播种初始跟进记录；失败只告警，询盘本身已创建成功
	followUp, err := service.SeedInitialFollowUp(ctx, enquiry, now)
	if err != nil {
		utils.LogSyncFailure("", enquiry.EnqNo, err)
	}

	utils.LogInfo(map[string]interface{}{
		"enqNo":    enquiry.EnqNo,
		"name":     enquiry.Name,
		"mobile":   enquiry.Mobile,
		"operator": user.Username,
	}, "创建询盘成功")

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "创建询盘成功",
		"enquiry":  enquiry,
		"followUp": followUp,
	})
}

// GetEnquiryList 获取询盘列表
func GetEnquiryList(c *gin.Context) {
	keyword := c.Query("keyword")
	status := c.Query("status")
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = 10
	}
	skip := (page - 1) * limit

	filter := bson.M{}

	if keyword != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": keyword, "$options": "i"}},
			{"mobile": bson.M{"$regex": keyword, "$options": "i"}},
			{"product": bson.M{"$regex": keyword, "$options": "i"}},
			{"enqNo": bson.M{"$regex": keyword, "$options": "i"}},
		}
	}

	if status != "" {
		filter["status"] = status
	}

	ctx := repository.GetContext()
	collection := repository.Collection(repository.EnquiriesCollection)

	totalCount, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"createdAt": -1})
	findOptions.SetSkip(int64(skip))
	findOptions.SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	enquiries := make([]models.Enquiry, 0)
	if err := cursor.All(ctx, &enquiries); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, enquiries, totalCount, int64(page), int64(limit))
}

// GetEnquiry 获取单个询盘详情，支持存储ID或业务编号
func GetEnquiry(c *gin.Context) {
	ref := c.Param("id")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "询盘ID不能为空"})
		return
	}

	ctx := repository.GetContext()

	enquiry, err := service.FindEnquiryByRef(ctx, ref)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("询盘"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"enquiry": enquiry,
	})
}

// DeleteEnquiry 删除询盘及其全部跟进记录
func DeleteEnquiry(c *gin.Context) {
	ref := c.Param("id")

	ctx := repository.GetContext()

	enquiry, err := service.FindEnquiryByRef(ctx, ref)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("询盘"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	collection := repository.Collection(repository.EnquiriesCollection)
	if _, err := collection.DeleteOne(ctx, bson.M{"_id": enquiry.ID}); err != nil {
		utils.HandleError(c, err)
		return
	}

	// 清理关联的跟进记录；失败只告警，询盘已删除
	followUps := repository.Collection(repository.FollowUpsCollection)
	result, err := followUps.DeleteMany(ctx, bson.M{"$or": []bson.M{
		{"enqNo": enquiry.EnqNo},
		{"enqId": enquiry.ID.Hex()},
	}})
	if err != nil {
		utils.LogError(err, map[string]interface{}{
			"enqNo": enquiry.EnqNo,
		}, "清理跟进记录失败")
	} else {
		utils.LogInfo(map[string]interface{}{
			"enqNo":   enquiry.EnqNo,
			"removed": result.DeletedCount,
		}, "删除询盘成功")
	}

	utils.SuccessResponse(c, nil, "删除询盘成功")
}
