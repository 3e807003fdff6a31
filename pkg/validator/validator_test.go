package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type phoneForm struct {
	Name  string `json:"name" validate:"notblank"`
	Phone string `json:"phone" validate:"phone"`
}

func TestPhoneRule(t *testing.T) {
	cases := map[string]bool{
		"010-1234-5678":   true,
		"+82 10 1234 5678": true,
		"":                true,
		"12ab":            false,
		"123":             false,
		"1+2345678":       false,
	}
	for phone, ok := range cases {
		err := ValidateStruct(phoneForm{Name: "x", Phone: phone})
		assert.Equal(t, ok, err == nil, phone)
	}
}

func TestMessagesUseJSONNames(t *testing.T) {
	err := ValidateStruct(phoneForm{Name: "   ", Phone: "abc"})
	assert.Error(t, err)
	assert.ElementsMatch(t, []string{"name: notblank", "phone: phone"}, Messages(err))
}
