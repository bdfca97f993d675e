package service

import (
	"time"

	"enquiry-server/models"
	"enquiry-server/repository"
	"enquiry-server/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ScheduleDailyTaskAt 每天指定时间执行任务
func ScheduleDailyTaskAt(hour, min, sec int, task func()) {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, sec, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			duration := next.Sub(now)
			time.Sleep(duration)
			task()
		}
	}()
}

// MarkOverdueFollowUps 把过期仍处于Scheduled的跟进记录标记为Missed
// 分类查询本身按日期判断错过，这里只是让存储的status跟上分类结果
func MarkOverdueFollowUps() {
	ctx := repository.GetContext()
	today := time.Now().Format(DateLayout)

	collection := repository.Collection(repository.FollowUpsCollection)

	// 夜间任务，网络抖动时多试几次
	result, err := repository.ExecuteDbOperation(func() (interface{}, error) {
		return collection.UpdateMany(
			ctx,
			bson.M{
				"date":   bson.M{"$lt": today},
				"status": models.FollowUpStatusScheduled,
			},
			bson.M{"$set": bson.M{"status": models.FollowUpStatusMissed}},
		)
	}, 3)
	if err != nil {
		utils.LogError(err, map[string]interface{}{
			"today": today,
		}, "标记错过跟进失败")
		return
	}

	updateResult := result.(*mongo.UpdateResult)
	utils.LogInfo(map[string]interface{}{
		"today":    today,
		"modified": updateResult.ModifiedCount,
	}, "每日错过跟进标记完成")
}
