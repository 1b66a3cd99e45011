package handler

import (
	"sync"

	"taskflow/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds task_status, task_priority and team_role to gin's
// validator. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
			return model.TaskStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
			return model.Priority(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("team_role", func(fl validator.FieldLevel) bool {
			return model.IsValidTeamRole(fl.Field().String())
		})
	})
}

func init() {
	RegisterValidators()
}
