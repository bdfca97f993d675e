package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"enquiry-server/models"
	"enquiry-server/repository"
	"enquiry-server/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var enqNoDigits = regexp.MustCompile(`\d+`)

// NextCodeNumber 从最近一个询盘编号中提取第一段数字并加一
// 编号缺失或无法解析时从1开始
func NextCodeNumber(lastEnqNo string) int {
	match := enqNoDigits.FindString(lastEnqNo)
	if match == "" {
		return 1
	}

	n, err := strconv.Atoi(match)
	if err != nil {
		return 1
	}
	return n + 1
}

// FormatEnquiryCode 格式化询盘编号，三位补零，超过999不截断
func FormatEnquiryCode(n int) string {
	return fmt.Sprintf("ENQ-%03d", n)
}

// FallbackEnquiryCode 编号冲突时的兜底编号，取时间戳尾部数字
// 不再连续，但和顺序编号不会撞
func FallbackEnquiryCode(now time.Time) string {
	return fmt.Sprintf("ENQ-%d", now.UnixNano()%100000000)
}

// NextEnquiryCode 生成下一个询盘编号
// 读最新编号和插入新询盘不是原子操作，并发创建可能读到同一个
// "最新"编号，靠enqNo唯一索引检测冲突后走兜底编号重试一次
func NextEnquiryCode(ctx context.Context) (string, error) {
	collection := repository.Collection(repository.EnquiriesCollection)

	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})

	var latest models.Enquiry
	err := collection.FindOne(ctx, bson.M{}, opts).Decode(&latest)
	if err == nil {
		return FormatEnquiryCode(NextCodeNumber(latest.EnqNo)), nil
	}

	if err == mongo.ErrNoDocuments {
		return FormatEnquiryCode(1), nil
	}

	// 主查询失败：退化为"总数+1"，并发写入下不精确，属已知限制
	utils.LogError(err, map[string]interface{}{}, "查询最新询盘编号失败，退化为计数方案")

	count, countErr := collection.CountDocuments(ctx, bson.M{})
	if countErr != nil {
		return "", fmt.Errorf("生成询盘编号失败: %w", countErr)
	}

	return FormatEnquiryCode(int(count) + 1), nil
}

// InsertEnquiry 插入询盘记录
// 编号撞唯一索引时换兜底编号重试一次，仍失败则把错误抛给调用方
func InsertEnquiry(ctx context.Context, enquiry *models.Enquiry) error {
	collection := repository.Collection(repository.EnquiriesCollection)

	result, err := collection.InsertOne(ctx, enquiry)
	if err == nil {
		enquiry.ID = result.InsertedID.(primitive.ObjectID)
		return nil
	}

	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	attempted := enquiry.EnqNo
	enquiry.EnqNo = FallbackEnquiryCode(time.Now())

	utils.LogWarn(map[string]interface{}{
		"attempted": attempted,
		"fallback":  enquiry.EnqNo,
	}, "询盘编号冲突，使用兜底编号重试")

	result, err = collection.InsertOne(ctx, enquiry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.CreateDuplicateIdentifierError(enquiry.EnqNo)
		}
		return err
	}

	enquiry.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// SeedInitialFollowUp 询盘创建后播种首条跟进记录
// 日期为当天，展示字段从询盘快照
func SeedInitialFollowUp(ctx context.Context, enquiry *models.Enquiry, now time.Time) (*models.FollowUp, error) {
	followUp := &models.FollowUp{
		EnqID:      enquiry.ID.Hex(),
		EnqNo:      enquiry.EnqNo,
		Name:       enquiry.Name,
		Mobile:     enquiry.Mobile,
		Image:      enquiry.Image,
		Date:       now.Format(DateLayout),
		Time:       now.Format("15:04"),
		Type:       models.FollowUpTypeWhatsApp,
		Remarks:    "Initial Enquiry Created",
		NextAction: models.OutcomeFollowup,
		Status:     models.FollowUpStatusScheduled,
		CreatedAt:  now,
	}

	collection := repository.Collection(repository.FollowUpsCollection)
	result, err := collection.InsertOne(ctx, followUp)
	if err != nil {
		return nil, err
	}

	followUp.ID = result.InsertedID.(primitive.ObjectID)
	return followUp, nil
}
