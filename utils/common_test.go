package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{name: "valid mobile", phone: "9000000000", want: true},
		{name: "valid starting with 6", phone: "6123456789", want: true},
		{name: "too short", phone: "900000000", want: false},
		{name: "too long", phone: "90000000001", want: false},
		{name: "invalid prefix", phone: "5000000000", want: false},
		{name: "with country code", phone: "+919000000000", want: false},
		{name: "letters", phone: "90000abcde", want: false},
		{name: "empty", phone: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPhone(tt.phone))
		})
	}
}

func TestApiErrorCodes(t *testing.T) {
	err := CreateInvalidOutcomeError("Postpone")
	assert.Equal(t, "INVALID_OUTCOME", err.ErrorCode)
	assert.Equal(t, 400, err.StatusCode)

	err = CreateMissingFieldError("nextDate")
	assert.Equal(t, "MISSING_REQUIRED_FIELD", err.ErrorCode)
	assert.Contains(t, err.Message, "nextDate")

	err = CreateDuplicateIdentifierError("ENQ-003")
	assert.Equal(t, "DUPLICATE_IDENTIFIER", err.ErrorCode)
	assert.Equal(t, 409, err.StatusCode)

	err = CreateNotFoundError("询盘")
	assert.Equal(t, "RESOURCE_NOT_FOUND", err.ErrorCode)
	assert.Equal(t, 404, err.StatusCode)
}
