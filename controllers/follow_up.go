package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"enquiry-server/models"
	"enquiry-server/repository"
	"enquiry-server/service"
	"enquiry-server/utils"
)

// GetFollowUpList 按分类获取跟进记录列表
// bucket ∈ {Today, Upcoming, Missed, Dropped, Completed, All}
func GetFollowUpList(c *gin.Context) {
	bucket := c.DefaultQuery("bucket", models.BucketAll)
	today := c.DefaultQuery("date", time.Now().Format(service.DateLayout))
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

	filter, err := service.BuildBucketFilter(bucket, today)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.LogInfo(map[string]interface{}{
		"bucket": bucket,
		"today":  today,
		"page":   page,
		"limit":  limit,
	}, "获取跟进记录列表")

	ctx := repository.GetContext()
	collection := repository.Collection(repository.FollowUpsCollection)

	totalCount, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.M{"date": -1})
	findOptions.SetSkip(int64(skip))
	findOptions.SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	followUps := make([]models.FollowUp, 0)
	if err := cursor.All(ctx, &followUps); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, followUps, totalCount, int64(page), int64(limit))
}

// CreateFollowUp 新增一条跟进记录（销售登记一次新的联系）
func CreateFollowUp(c *gin.Context) {
	var input models.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	ctx := repository.GetContext()

	// 验证询盘是否存在
	enquiry, err := service.FindEnquiryByRef(ctx, input.EnqNo)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("询盘"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	followUpType := input.Type
	if followUpType == "" {
		followUpType = models.FollowUpTypeWhatsApp
	}

	now := time.Now()
	followUp := models.FollowUp{
		EnqID:      enquiry.ID.Hex(),
		EnqNo:      enquiry.EnqNo,
		Name:       enquiry.Name,
		Mobile:     enquiry.Mobile,
		Image:      enquiry.Image,
		Date:       input.Date,
		Time:       input.Time,
		Type:       followUpType,
		Remarks:    input.Remarks,
		NextAction: models.OutcomeFollowup,
		Status:     models.FollowUpStatusScheduled,
		CreatedAt:  now,
	}

	collection := repository.Collection(repository.FollowUpsCollection)
	result, err := collection.InsertOne(ctx, followUp)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	followUp.ID = result.InsertedID.(primitive.ObjectID)

	// 有新的跟进动作时把询盘推进到"In Progress"
	// 已成交或已放弃的询盘不回退；失败只告警
	if enquiry.Status == models.EnquiryStatusNew {
		enquiries := repository.Collection(repository.EnquiriesCollection)
		_, err := enquiries.UpdateOne(
			ctx,
			bson.M{"_id": enquiry.ID},
			bson.M{"$set": bson.M{"status": models.EnquiryStatusInProgress}},
		)
		if err != nil {
			utils.LogSyncFailure(followUp.ID.Hex(), enquiry.EnqNo, err)
		}
	}

	utils.LogInfo(map[string]interface{}{
		"followUpId": followUp.ID.Hex(),
		"enqNo":      followUp.EnqNo,
		"date":       followUp.Date,
	}, "创建跟进记录成功")

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "创建跟进记录成功",
		"followUp": followUp,
	})
}

// ResolveFollowUp 处理跟进结果，并把派生状态同步到所属询盘
// 两次写入是先后独立的：跟进记录写成功后询盘同步失败只记日志，
// 不影响本次处理的成功返回
func ResolveFollowUp(c *gin.Context) {
	id := c.Param("id")

	// 获取当前用户信息
	user, err := utils.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var input models.ResolveFollowUpRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	// 任何写入前先完成校验
	if err := service.ValidateResolveRequest(&input); err != nil {
		utils.HandleError(c, err)
		return
	}

	followUpId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("无效的跟进记录ID"))
		return
	}

	ctx := repository.GetContext()
	collection := repository.Collection(repository.FollowUpsCollection)

	var followUp models.FollowUp
	if err := collection.FindOne(ctx, bson.M{"_id": followUpId}).Decode(&followUp); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("跟进记录"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	update := service.ApplyOutcome(&followUp, &input)

	if _, err := collection.UpdateOne(ctx, bson.M{"_id": followUpId}, bson.M{"$set": update}); err != nil {
		utils.HandleError(c, err)
		return
	}

	now := time.Now()
	enquiry, err := service.SyncEnquiryAfterResolve(ctx, &followUp, &input, now)
	if err != nil {
		// 跟进记录已更新，询盘同步失败按最终一致处理
		utils.LogSyncFailure(followUp.ID.Hex(), followUp.EnqID, err)
	}

	utils.LogInfo(map[string]interface{}{
		"followUpId": followUp.ID.Hex(),
		"enqNo":      followUp.EnqNo,
		"outcome":    input.Outcome,
		"status":     followUp.Status,
		"operator":   user.Username,
	}, "处理跟进结果成功")

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"followUp": followUp,
		"enquiry":  enquiry,
	})
}

// GetFollowUpHistory 获取某个询盘的跟进历史，按创建时间倒序
// 路径参数可以是业务编号也可以是询盘的存储ID
func GetFollowUpHistory(c *gin.Context) {
	ref := c.Param("enqNo")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "询盘编号不能为空"})
		return
	}

	ctx := repository.GetContext()
	collection := repository.Collection(repository.FollowUpsCollection)

	opts := options.Find().SetSort(bson.M{"createdAt": -1})

	cursor, err := collection.Find(ctx, service.BuildHistoryFilter(ref), opts)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	// 没有跟进记录的询盘返回空列表
	records := make([]models.FollowUp, 0)
	if err := cursor.All(ctx, &records); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.LogInfo(map[string]interface{}{
		"ref":         ref,
		"recordCount": len(records),
	}, "获取跟进历史成功")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"records": records,
	})
}
