// Package handler hosts the HTTP handler packages and shared binding setup.
package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ayursutra/booking-api/internal/schedule"
)

// RegisterValidators installs custom binding validators on gin's validator
// engine. Call once before serving.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// timeofday accepts 24-hour HH:MM clock strings.
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
}
