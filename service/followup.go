package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"enquiry-server/models"
	"enquiry-server/repository"
	"enquiry-server/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DateLayout 跟进日期的存储格式
const DateLayout = "2006-01-02"

// activeExclusions 三个时间分类（Today/Upcoming/Missed）要排除的status取值：
// 已完成 + 所有"已放弃"的遗留写法
func activeExclusions() []string {
	excluded := make([]string, 0, len(models.DropVariants)+1)
	excluded = append(excluded, models.FollowUpStatusCompleted)
	excluded = append(excluded, models.DropVariants...)
	return excluded
}

// BuildBucketFilter 按跟进分类构建查询条件
// today为调用方提供的当前日期（YYYY-MM-DD）
// 放弃的判定必须同时看status和nextAction：结果已选Drop但status还
// 停留在Scheduled的记录也要从时间分类中剔除
func BuildBucketFilter(bucket, today string) (bson.M, error) {
	switch bucket {
	case models.BucketToday:
		return bson.M{
			"date":       today,
			"status":     bson.M{"$nin": activeExclusions()},
			"nextAction": bson.M{"$nin": models.DropVariants},
		}, nil
	case models.BucketUpcoming:
		return bson.M{
			"date":       bson.M{"$gt": today},
			"status":     bson.M{"$nin": activeExclusions()},
			"nextAction": bson.M{"$nin": models.DropVariants},
		}, nil
	case models.BucketMissed:
		return bson.M{
			"date":       bson.M{"$lt": today},
			"status":     bson.M{"$nin": activeExclusions()},
			"nextAction": bson.M{"$nin": models.DropVariants},
		}, nil
	case models.BucketDropped:
		return bson.M{
			"$or": []bson.M{
				{"status": bson.M{"$in": models.DropVariants}},
				{"nextAction": bson.M{"$in": models.DropVariants}},
			},
		}, nil
	case models.BucketCompleted:
		return bson.M{"status": models.FollowUpStatusCompleted}, nil
	case models.BucketAll, "":
		return bson.M{}, nil
	default:
		return nil, utils.CreateInvalidBucketError(bucket)
	}
}

// BuildHistoryFilter 构建按业务编号或存储ID查询跟进历史的条件
// 调用方手里可能是enqNo也可能是询盘的存储ID，两种引用都要兼容
func BuildHistoryFilter(ref string) bson.M {
	or := []bson.M{{"enqNo": ref}}
	if _, err := primitive.ObjectIDFromHex(ref); err == nil {
		or = append(or, bson.M{"enqId": ref})
	}
	return bson.M{"$or": or}
}

// ValidateResolveRequest 校验跟进处理请求
// 任何写入发生之前完成校验
func ValidateResolveRequest(req *models.ResolveFollowUpRequest) error {
	if !models.IsValidOutcome(req.Outcome) {
		return utils.CreateInvalidOutcomeError(req.Outcome)
	}

	if req.Outcome == models.OutcomeFollowup && strings.TrimSpace(req.NextDate) == "" {
		return utils.CreateMissingFieldError("nextDate")
	}

	if req.Outcome == models.OutcomeSales && strings.TrimSpace(req.Amount) == "" {
		return utils.CreateMissingFieldError("amount")
	}

	return nil
}

var nonAmountChars = regexp.MustCompile(`[^0-9.]`)

// ParseAmount 解析金额字符串
// 剔除货币符号和千分位等非数字字符，解析失败按0处理
func ParseAmount(raw string) float64 {
	cleaned := nonAmountChars.ReplaceAllString(raw, "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// ApplyOutcome 根据跟进结果推导跟进记录的新状态
// 直接修改传入的记录副本，并返回用于持久化的$set内容
func ApplyOutcome(followUp *models.FollowUp, req *models.ResolveFollowUpRequest) bson.M {
	remarks := req.Remarks
	if remarks == "" {
		remarks = followUp.Remarks
	}

	update := bson.M{"nextAction": req.Outcome}

	switch req.Outcome {
	case models.OutcomeFollowup:
		// 改约到下次跟进日期
		followUp.Date = req.NextDate
		followUp.Status = models.FollowUpStatusScheduled
	case models.OutcomeSales:
		// 保留原备注，追加成交金额
		remarks = remarks + " | Sales: ₹" + req.Amount
		followUp.Status = models.FollowUpStatusCompleted
		followUp.Amount = ParseAmount(req.Amount)
		update["amount"] = followUp.Amount
	case models.OutcomeDrop:
		followUp.Status = models.FollowUpStatusDrop
	}

	followUp.Remarks = remarks
	followUp.NextAction = req.Outcome

	update["date"] = followUp.Date
	update["remarks"] = followUp.Remarks
	update["status"] = followUp.Status

	return update
}

// DeriveEnquiryUpdate 根据跟进结果推导询盘侧的同步更新
func DeriveEnquiryUpdate(outcome, amount string, now time.Time) bson.M {
	switch outcome {
	case models.OutcomeSales:
		return bson.M{
			"status":      models.EnquiryStatusConverted,
			"cost":        ParseAmount(amount),
			"convertedAt": now,
		}
	case models.OutcomeDrop:
		return bson.M{"status": models.EnquiryStatusDropped}
	default:
		return bson.M{"status": models.EnquiryStatusInProgress}
	}
}

// FindEnquiryByRef 按存储ID或业务编号查询询盘
func FindEnquiryByRef(ctx context.Context, ref string) (*models.Enquiry, error) {
	collection := repository.Collection(repository.EnquiriesCollection)

	if objID, err := primitive.ObjectIDFromHex(ref); err == nil {
		var enquiry models.Enquiry
		err := collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&enquiry)
		if err == nil {
			return &enquiry, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
	}

	var enquiry models.Enquiry
	if err := collection.FindOne(ctx, bson.M{"enqNo": ref}).Decode(&enquiry); err != nil {
		return nil, err
	}
	return &enquiry, nil
}

// SyncEnquiryAfterResolve 把跟进结果同步到所属询盘
// 先按enqId找，找不到再按enqNo兜底；返回更新后的询盘
func SyncEnquiryAfterResolve(ctx context.Context, followUp *models.FollowUp, req *models.ResolveFollowUpRequest, now time.Time) (*models.Enquiry, error) {
	enquiry, err := FindEnquiryByRef(ctx, followUp.EnqID)
	if err == mongo.ErrNoDocuments && followUp.EnqNo != "" {
		enquiry, err = FindEnquiryByRef(ctx, followUp.EnqNo)
	}
	if err != nil {
		return nil, err
	}

	update := DeriveEnquiryUpdate(req.Outcome, req.Amount, now)

	collection := repository.Collection(repository.EnquiriesCollection)
	if _, err := collection.UpdateOne(ctx, bson.M{"_id": enquiry.ID}, bson.M{"$set": update}); err != nil {
		return nil, err
	}

	// 把更新内容回填到返回值
	enquiry.Status = update["status"].(string)
	if cost, ok := update["cost"].(float64); ok {
		enquiry.Cost = cost
	}
	if convertedAt, ok := update["convertedAt"].(time.Time); ok {
		enquiry.ConvertedAt = &convertedAt
	}

	return enquiry, nil
}
