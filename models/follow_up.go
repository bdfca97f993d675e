package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 跟进结果（nextAction）常量
const (
	OutcomeFollowup = "Followup"
	OutcomeSales    = "Sales"
	OutcomeDrop     = "Drop"
)

// 跟进状态常量
// 历史数据中存在大小写不一致的遗留值（drop/dropped），查询时必须兼容
const (
	FollowUpStatusScheduled = "Scheduled"
	FollowUpStatusMissed    = "Missed"
	FollowUpStatusCompleted = "Completed"
	FollowUpStatusDrop      = "Drop"
)

// 跟进方式常量
const (
	FollowUpTypeWhatsApp = "WhatsApp"
	FollowUpTypeVisit    = "Visit"
)

// 跟进分类（列表视图）常量
const (
	BucketToday     = "Today"
	BucketUpcoming  = "Upcoming"
	BucketMissed    = "Missed"
	BucketDropped   = "Dropped"
	BucketCompleted = "Completed"
	BucketAll       = "All"
)

// DropVariants 表示"已放弃"的所有遗留写法
// status和nextAction两个字段都可能携带其中任意一种
var DropVariants = []string{"Drop", "Dropped", "dropped", "drop"}

// IsValidOutcome 验证跟进结果是否有效
func IsValidOutcome(outcome string) bool {
	return outcome == OutcomeFollowup ||
		outcome == OutcomeSales ||
		outcome == OutcomeDrop
}

// FollowUp 跟进记录模型
// Name/Mobile/Image 是创建时从询盘快照的展示字段，不随询盘后续编辑变化
type FollowUp struct {
	ID         primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	EnqID      string             `json:"enqId" bson:"enqId"`
	EnqNo      string             `json:"enqNo" bson:"enqNo"`
	Name       string             `json:"name" bson:"name"`
	Mobile     string             `json:"mobile" bson:"mobile"`
	Image      string             `json:"image,omitempty" bson:"image,omitempty"`
	Date       string             `json:"date" bson:"date"` // YYYY-MM-DD
	Time       string             `json:"time,omitempty" bson:"time,omitempty"`
	Type       string             `json:"type" bson:"type"`
	Remarks    string             `json:"remarks" bson:"remarks"`
	NextAction string             `json:"nextAction" bson:"nextAction"`
	Status     string             `json:"status" bson:"status"`
	Amount     float64            `json:"amount,omitempty" bson:"amount,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateFollowUpRequest 新增跟进记录请求
type CreateFollowUpRequest struct {
	EnqNo   string `json:"enqNo" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Time    string `json:"time"`
	Type    string `json:"type"`
	Remarks string `json:"remarks" binding:"required"`
}

// ResolveFollowUpRequest 处理跟进结果请求
// NextDate/Amount 是否必填取决于Outcome，校验在业务层完成
type ResolveFollowUpRequest struct {
	Outcome  string `json:"outcome" binding:"required"`
	Remarks  string `json:"remarks"`
	NextDate string `json:"nextDate"`
	Amount   string `json:"amount"`
}
