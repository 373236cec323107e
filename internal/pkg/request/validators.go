package request

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DateLayout = "2006-01-02"
	HourLayout = "15:04"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request DTOs:
//
//	isodate  "YYYY-MM-DD"
//	hhmm     "HH:MM" (24h)
//	notblank non-empty after trimming spaces
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("isodate", layoutValidator(DateLayout))
		_ = v.RegisterValidation("hhmm", layoutValidator(HourLayout))
		_ = v.RegisterValidation("notblank", notBlank)
	})
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true // left to "required"
		}
		_, err := time.Parse(layout, s)
		return err == nil
	}
}

func notBlank(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
