package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct(t *testing.T) {
	type testStruct struct {
		Host     *string `validate:"required"`
		Port     uint    `validate:"required"`
		Optional string
	}

	host := "localhost"

	errs := ValidateStruct(&testStruct{Host: &host, Port: 8112})
	assert.Empty(t, errs)

	errs = ValidateStruct(&testStruct{Port: 8112})
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Host")

	errs = ValidateStruct(&testStruct{Host: &host})
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Port")

	assert.Nil(t, ValidateStruct("not a struct"))
}
