package service

import (
	"testing"
	"time"

	"enquiry-server/models"
	"enquiry-server/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// matchFilter 在测试内对文档求值分类查询条件
// 只覆盖BuildBucketFilter实际用到的操作符
func matchFilter(t *testing.T, filter bson.M, doc map[string]string) bool {
	t.Helper()

	for key, cond := range filter {
		if key == "$or" {
			clauses, ok := cond.([]bson.M)
			require.True(t, ok, "$or的值必须是[]bson.M")

			matched := false
			for _, clause := range clauses {
				if matchFilter(t, clause, doc) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
			continue
		}

		value := doc[key]
		switch c := cond.(type) {
		case string:
			if value != c {
				return false
			}
		case bson.M:
			for op, arg := range c {
				switch op {
				case "$gt":
					if !(value > arg.(string)) {
						return false
					}
				case "$lt":
					if !(value < arg.(string)) {
						return false
					}
				case "$in":
					if !containsString(arg.([]string), value) {
						return false
					}
				case "$nin":
					if containsString(arg.([]string), value) {
						return false
					}
				default:
					t.Fatalf("未覆盖的查询操作符: %s", op)
				}
			}
		default:
			t.Fatalf("未覆盖的条件类型: %T", cond)
		}
	}

	return true
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func inBucket(t *testing.T, doc map[string]string, bucket, today string) bool {
	t.Helper()

	filter, err := BuildBucketFilter(bucket, today)
	require.NoError(t, err)
	return matchFilter(t, filter, doc)
}

const fixedToday = "2025-06-15"

func TestBucketClassification(t *testing.T) {
	tests := []struct {
		name    string
		doc     map[string]string
		buckets []string
	}{
		{
			name:    "scheduled today",
			doc:     map[string]string{"date": fixedToday, "status": "Scheduled", "nextAction": "Followup"},
			buckets: []string{models.BucketToday},
		},
		{
			name:    "scheduled tomorrow",
			doc:     map[string]string{"date": "2025-06-16", "status": "Scheduled", "nextAction": "Followup"},
			buckets: []string{models.BucketUpcoming},
		},
		{
			name:    "scheduled yesterday",
			doc:     map[string]string{"date": "2025-06-14", "status": "Scheduled", "nextAction": "Followup"},
			buckets: []string{models.BucketMissed},
		},
		{
			name:    "stamped missed",
			doc:     map[string]string{"date": "2025-06-10", "status": "Missed", "nextAction": "Followup"},
			buckets: []string{models.BucketMissed},
		},
		{
			name:    "completed today",
			doc:     map[string]string{"date": fixedToday, "status": "Completed", "nextAction": "Sales"},
			buckets: []string{models.BucketCompleted},
		},
		{
			name:    "dropped by status",
			doc:     map[string]string{"date": fixedToday, "status": "Drop", "nextAction": "Drop"},
			buckets: []string{models.BucketDropped},
		},
		{
			// 结果已选Drop但status还停留在Scheduled：必须从Today剔除、进Dropped
			name:    "drop pending reconciliation",
			doc:     map[string]string{"date": fixedToday, "status": "Scheduled", "nextAction": "Drop"},
			buckets: []string{models.BucketDropped},
		},
		{
			name:    "legacy lowercase dropped",
			doc:     map[string]string{"date": "2025-06-16", "status": "dropped", "nextAction": "Followup"},
			buckets: []string{models.BucketDropped},
		},
		{
			name:    "legacy lowercase drop",
			doc:     map[string]string{"date": "2025-06-14", "status": "drop", "nextAction": "Followup"},
			buckets: []string{models.BucketDropped},
		},
		{
			name:    "legacy Dropped casing",
			doc:     map[string]string{"date": "2025-06-14", "status": "Dropped", "nextAction": "Followup"},
			buckets: []string{models.BucketDropped},
		},
	}

	temporal := []string{models.BucketToday, models.BucketUpcoming, models.BucketMissed}
	overlays := []string{models.BucketDropped, models.BucketCompleted}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, bucket := range append(append([]string{}, temporal...), overlays...) {
				if inBucket(t, tt.doc, bucket, fixedToday) {
					got = append(got, bucket)
				}
			}
			assert.ElementsMatch(t, tt.buckets, got)

			// All分类无条件包含
			assert.True(t, inBucket(t, tt.doc, models.BucketAll, fixedToday))
		})
	}
}

// 三个时间分类互斥，且与Dropped/Completed不相交
func TestBucketPartition(t *testing.T) {
	docs := []map[string]string{
		{"date": "2025-06-14", "status": "Scheduled", "nextAction": "Followup"},
		{"date": fixedToday, "status": "Scheduled", "nextAction": "Followup"},
		{"date": "2025-06-16", "status": "Scheduled", "nextAction": "Followup"},
		{"date": fixedToday, "status": "Completed", "nextAction": "Sales"},
		{"date": fixedToday, "status": "Scheduled", "nextAction": "Drop"},
		{"date": "2025-06-20", "status": "dropped", "nextAction": "Followup"},
		{"date": "2025-06-01", "status": "Missed", "nextAction": "Followup"},
	}

	temporal := []string{models.BucketToday, models.BucketUpcoming, models.BucketMissed}

	for i, doc := range docs {
		temporalHits := 0
		for _, bucket := range temporal {
			if inBucket(t, doc, bucket, fixedToday) {
				temporalHits++
			}
		}

		dropped := inBucket(t, doc, models.BucketDropped, fixedToday)
		completed := inBucket(t, doc, models.BucketCompleted, fixedToday)

		if dropped || completed {
			assert.Equal(t, 0, temporalHits, "文档%d同时落在时间分类和覆盖分类", i)
		} else {
			assert.Equal(t, 1, temporalHits, "文档%d应恰好落在一个时间分类", i)
		}
	}
}

func TestBuildBucketFilterInvalid(t *testing.T) {
	_, err := BuildBucketFilter("Tomorrow", fixedToday)
	require.Error(t, err)

	apiErr, ok := err.(*utils.ApiError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_BUCKET", apiErr.ErrorCode)
}

func TestBuildHistoryFilter(t *testing.T) {
	// 普通业务编号只按enqNo查
	filter := BuildHistoryFilter("ENQ-017")
	assert.Equal(t, bson.M{"$or": []bson.M{{"enqNo": "ENQ-017"}}}, filter)

	// 合法的ObjectID同时按enqId查
	filter = BuildHistoryFilter("507f1f77bcf86cd799439011")
	assert.Equal(t, bson.M{"$or": []bson.M{
		{"enqNo": "507f1f77bcf86cd799439011"},
		{"enqId": "507f1f77bcf86cd799439011"},
	}}, filter)
}

func TestValidateResolveRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      models.ResolveFollowUpRequest
		wantCode string
	}{
		{
			name: "valid followup",
			req:  models.ResolveFollowUpRequest{Outcome: "Followup", NextDate: "2025-06-20"},
		},
		{
			name: "valid sales",
			req:  models.ResolveFollowUpRequest{Outcome: "Sales", Amount: "5,000"},
		},
		{
			name: "valid drop",
			req:  models.ResolveFollowUpRequest{Outcome: "Drop"},
		},
		{
			name:     "unknown outcome",
			req:      models.ResolveFollowUpRequest{Outcome: "Postpone"},
			wantCode: "INVALID_OUTCOME",
		},
		{
			name:     "followup without next date",
			req:      models.ResolveFollowUpRequest{Outcome: "Followup"},
			wantCode: "MISSING_REQUIRED_FIELD",
		},
		{
			name:     "followup with blank next date",
			req:      models.ResolveFollowUpRequest{Outcome: "Followup", NextDate: "   "},
			wantCode: "MISSING_REQUIRED_FIELD",
		},
		{
			name:     "sales without amount",
			req:      models.ResolveFollowUpRequest{Outcome: "Sales"},
			wantCode: "MISSING_REQUIRED_FIELD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResolveRequest(&tt.req)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*utils.ApiError)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"5000", 5000},
		{"5,000", 5000},
		{"₹5,000", 5000},
		{"₹ 12,345.50", 12345.50},
		{"Rs. 800", 800},
		{"", 0},
		{"abc", 0},
		{"12.5.3", 0}, // 多个小数点解析失败按0处理
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAmount(tt.raw), "raw=%q", tt.raw)
	}
}

func TestApplyOutcomeSales(t *testing.T) {
	followUp := models.FollowUp{
		Date:       fixedToday,
		Remarks:    "Customer liked the sofa",
		NextAction: "Followup",
		Status:     "Scheduled",
	}
	req := models.ResolveFollowUpRequest{
		Outcome: "Sales",
		Remarks: "Deal finalised",
		Amount:  "5,000",
	}

	update := ApplyOutcome(&followUp, &req)

	assert.Equal(t, "Completed", followUp.Status)
	assert.Equal(t, "Sales", followUp.NextAction)
	assert.Equal(t, float64(5000), followUp.Amount)
	assert.Equal(t, "Deal finalised | Sales: ₹5,000", followUp.Remarks)
	// 已处理的日期保持不变
	assert.Equal(t, fixedToday, followUp.Date)

	assert.Equal(t, "Completed", update["status"])
	assert.Equal(t, float64(5000), update["amount"])
	assert.Equal(t, fixedToday, update["date"])
}

func TestApplyOutcomeSalesKeepsExistingRemarks(t *testing.T) {
	followUp := models.FollowUp{
		Date:    fixedToday,
		Remarks: "Visited showroom",
		Status:  "Scheduled",
	}
	req := models.ResolveFollowUpRequest{Outcome: "Sales", Amount: "800"}

	ApplyOutcome(&followUp, &req)

	assert.Equal(t, "Visited showroom | Sales: ₹800", followUp.Remarks)
}

func TestApplyOutcomeFollowup(t *testing.T) {
	followUp := models.FollowUp{
		Date:    fixedToday,
		Remarks: "No answer",
		Status:  "Scheduled",
		Amount:  250,
	}
	req := models.ResolveFollowUpRequest{
		Outcome:  "Followup",
		Remarks:  "Call again next week",
		NextDate: "2025-06-22",
	}

	update := ApplyOutcome(&followUp, &req)

	assert.Equal(t, "Scheduled", followUp.Status)
	assert.Equal(t, "Followup", followUp.NextAction)
	assert.Equal(t, "2025-06-22", followUp.Date)
	assert.Equal(t, "Call again next week", followUp.Remarks)
	// 金额只在成交时更新
	assert.Equal(t, float64(250), followUp.Amount)
	_, hasAmount := update["amount"]
	assert.False(t, hasAmount)
}

func TestApplyOutcomeDrop(t *testing.T) {
	followUp := models.FollowUp{
		Date:    "2025-06-10",
		Remarks: "Too expensive",
		Status:  "Missed",
	}
	req := models.ResolveFollowUpRequest{Outcome: "Drop"}

	ApplyOutcome(&followUp, &req)

	assert.Equal(t, "Drop", followUp.Status)
	assert.Equal(t, "Drop", followUp.NextAction)
	assert.Equal(t, "2025-06-10", followUp.Date)
	assert.Equal(t, "Too expensive", followUp.Remarks)
}

func TestDeriveEnquiryUpdate(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	update := DeriveEnquiryUpdate("Sales", "₹5,000", now)
	assert.Equal(t, models.EnquiryStatusConverted, update["status"])
	assert.Equal(t, float64(5000), update["cost"])
	assert.Equal(t, now, update["convertedAt"])

	update = DeriveEnquiryUpdate("Drop", "", now)
	assert.Equal(t, models.EnquiryStatusDropped, update["status"])
	_, hasCost := update["cost"]
	assert.False(t, hasCost)

	update = DeriveEnquiryUpdate("Followup", "", now)
	assert.Equal(t, models.EnquiryStatusInProgress, update["status"])
}
