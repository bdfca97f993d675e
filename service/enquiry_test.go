package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCodeNumber(t *testing.T) {
	tests := []struct {
		name      string
		lastEnqNo string
		want      int
	}{
		{name: "normal code", lastEnqNo: "ENQ-001", want: 2},
		{name: "larger code", lastEnqNo: "ENQ-099", want: 100},
		{name: "beyond padding", lastEnqNo: "ENQ-999", want: 1000},
		{name: "four digit code", lastEnqNo: "ENQ-1000", want: 1001},
		{name: "empty code", lastEnqNo: "", want: 1},
		{name: "no digits", lastEnqNo: "ENQ-", want: 1},
		{name: "fallback style code", lastEnqNo: "ENQ-48291733", want: 48291734},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextCodeNumber(tt.lastEnqNo))
		})
	}
}

func TestFormatEnquiryCode(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "ENQ-001"},
		{42, "ENQ-042"},
		{999, "ENQ-999"},
		{1000, "ENQ-1000"}, // 补零只到三位，超出不截断
		{48291734, "ENQ-48291734"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEnquiryCode(tt.n))
	}
}

// 无并发时连续生成的编号严格递增且互不相同
func TestCodeSequenceMonotonic(t *testing.T) {
	last := ""
	prev := 0
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		n := NextCodeNumber(last)
		code := FormatEnquiryCode(n)

		require.False(t, seen[code], "编号重复: %s", code)
		seen[code] = true
		require.Greater(t, n, prev)

		prev = n
		last = code
	}

	assert.Equal(t, "ENQ-050", last)
}

func TestFallbackEnquiryCode(t *testing.T) {
	now := time.Now()
	fallback := FallbackEnquiryCode(now)

	assert.Regexp(t, `^ENQ-\d+$`, fallback)

	// 兜底编号要与冲突的顺序编号不同
	attempted := FormatEnquiryCode(NextCodeNumber("ENQ-007"))
	assert.NotEqual(t, attempted, fallback)

	expected := fmt.Sprintf("ENQ-%d", now.UnixNano()%100000000)
	assert.Equal(t, expected, fallback)
}
