package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/plateful/backend/internal/validation"
)

// RegisterValidators installs the custom binding rules on gin's validator
// engine. Call once at startup before serving requests.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		_, err := validation.Name(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("tagslug", func(fl validator.FieldLevel) bool {
		_, err := validation.Slug(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		_, err := validation.HexColor(fl.Field().String())
		return err == nil
	})
}
