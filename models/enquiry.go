package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 询盘状态常量
const (
	EnquiryStatusNew        = "New"
	EnquiryStatusInProgress = "In Progress"
	EnquiryStatusConverted  = "Converted"
	EnquiryStatusDropped    = "Dropped"
)

// IsValidEnquiryStatus 验证询盘状态是否有效
func IsValidEnquiryStatus(status string) bool {
	validStatus := []string{
		EnquiryStatusNew,
		EnquiryStatusInProgress,
		EnquiryStatusConverted,
		EnquiryStatusDropped,
	}

	for _, s := range validStatus {
		if s == status {
			return true
		}
	}
	return false
}

// Enquiry 询盘（销售线索）模型
// EnqNo 是面向业务的唯一编号（ENQ-001），与存储ID并存
type Enquiry struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	EnqNo       string             `json:"enqNo" bson:"enqNo"`
	Name        string             `json:"name" bson:"name"`
	Mobile      string             `json:"mobile" bson:"mobile"`
	Image       string             `json:"image,omitempty" bson:"image,omitempty"`
	Product     string             `json:"product" bson:"product"`
	Cost        float64            `json:"cost" bson:"cost"`
	Status      string             `json:"status" bson:"status"`
	Source      string             `json:"source,omitempty" bson:"source,omitempty"`
	Address     string             `json:"address,omitempty" bson:"address,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	ConvertedAt *time.Time         `json:"convertedAt,omitempty" bson:"convertedAt,omitempty"`
}

// CreateEnquiryRequest 创建询盘请求
type CreateEnquiryRequest struct {
	Name    string `json:"name" binding:"required"`
	Mobile  string `json:"mobile" binding:"required"`
	Image   string `json:"image"`
	Product string `json:"product"`
	Cost    string `json:"cost"`
	Source  string `json:"source"`
	Address string `json:"address"`
}
