package main

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// StudentInput is the editable part of a student record.
type StudentInput struct {
	Name       string `json:"name" validate:"required"`
	NationalId string `json:"national_id" validate:"required,rut"`
	Phone      string `json:"phone" validate:"omitempty,cl_phone"`
	Email      string `json:"email" validate:"omitempty,email"`
}

var (
	// custom validation tags & texts
	rutTag  = "rut"
	rutText = "must be a valid RUT, e.g. 12.345.678-5"

	phoneTag  = "cl_phone"
	phoneText = "must be a 9-digit Chilean phone number"

	requiredTag  = "required"
	requiredText = "this field is required"
)

var (
	validate     *validator.Validate
	translator   ut.Translator
	validateOnce sync.Once
)

func initValidators() {
	validate = validator.New()
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(rutTag, func(fl validator.FieldLevel) bool {
		return ValidNationalID(fl.Field().String())
	})
	registerTranslation(rutTag, rutText)

	_ = validate.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	registerTranslation(phoneTag, phoneText)

	registerTranslation(requiredTag, requiredText, true)
}

func registerTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStudentInput checks a student form and normalizes its ID and phone formats.
func ValidateStudentInput(input StudentInput) (StudentInput, error) {
	validateOnce.Do(initValidators)

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := validate.Struct(input); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return input, errors.Wrap(err, "failed to validate student")
		}

		fields := make([]FieldError, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(translator)})
		}
		return input, NewValidationError(errors.New("invalid student data"), fields...)
	}

	input.NationalId, _ = FormatNationalID(input.NationalId)
	if input.Phone != "" {
		input.Phone, _ = FormatPhone(input.Phone)
	}
	return input, nil
}
