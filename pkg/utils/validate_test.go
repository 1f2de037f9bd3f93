package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type createThing struct {
	Name string `validate:"required"`
	Size int    `validate:"min=1,max=10"`
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(createThing{Name: "a", Size: 3}))
}

func TestValidateReportsFieldAndRule(t *testing.T) {
	err := Validate(createThing{Size: 99})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "required")
	assert.Contains(t, err.Error(), "Size")
	assert.Contains(t, err.Error(), "max")
}
