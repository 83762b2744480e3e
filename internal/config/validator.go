package config

import (
	"TravelExpense/internal/api/travel"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	if err := travel.RegisterValidations(validate); err != nil {
		logrus.Fatalf("Failed to register validations: %v", err)
	}
	return validate
}
