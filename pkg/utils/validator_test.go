package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct_Hundredths(t *testing.T) {
	type hoursReq struct {
		Hours float64 `validate:"gt=0,hundredths"`
	}

	for _, h := range []float64{1, 0.1, 2.5, 1.25, 999.99} {
		assert.Nil(t, ValidateStruct(hoursReq{Hours: h}), h)
	}
	for _, h := range []float64{1.005, 2.001, 0.125} {
		errs := ValidateStruct(hoursReq{Hours: h})
		assert.Equal(t, "Must have at most two decimal places", errs["Hours"], h)
	}
}
