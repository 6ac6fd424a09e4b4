package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/hera_engine/internal/core/smartcode"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the "smartcode" binding tag. The tag only checks the
// shape after normalization; the orchestrators still apply the strict policy.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("smartcode", validSmartCodeShape)
		}
	})
}

func validSmartCodeShape(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" {
		return true
	}
	return smartcode.Check(smartcode.Normalize(code)) == smartcode.Valid
}
