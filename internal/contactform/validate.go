package contactform

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ru"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	ru_translations "github.com/go-playground/validator/v10/translations/ru"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{4,30}$`)

var phoneMessages = map[string]string{
	"en": "{0} must be a valid phone number",
	"ru": "{0} должен быть корректным номером телефона",
}

// Validator checks submissions and reports field errors in the visitor's
// language. Locales without registered translations use English.
type Validator struct {
	validate *govalidator.Validate
	uni      *ut.UniversalTranslator
	fallback ut.Translator
}

// NewValidator registers the en and ru translations.
func NewValidator() (*Validator, error) {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl govalidator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("contactform: register phone rule: %w", err)
	}

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, ru.New())

	enTrans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, enTrans); err != nil {
		return nil, fmt.Errorf("contactform: register en translations: %w", err)
	}
	ruTrans, _ := uni.GetTranslator("ru")
	if err := ru_translations.RegisterDefaultTranslations(v, ruTrans); err != nil {
		return nil, fmt.Errorf("contactform: register ru translations: %w", err)
	}
	for lang, trans := range map[string]ut.Translator{"en": enTrans, "ru": ruTrans} {
		if err := registerPhone(v, trans, phoneMessages[lang]); err != nil {
			return nil, err
		}
	}

	return &Validator{validate: v, uni: uni, fallback: enTrans}, nil
}

func registerPhone(v *govalidator.Validate, trans ut.Translator, text string) error {
	err := v.RegisterTranslation("phone", trans,
		func(t ut.Translator) error { return t.Add("phone", text, true) },
		func(t ut.Translator, fe govalidator.FieldError) string {
			msg, err := t.T("phone", fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		})
	if err != nil {
		return fmt.Errorf("contactform: register phone translation: %w", err)
	}
	return nil
}

// Validate returns field name to message for every failing field, or nil
// when the submission is valid.
func (v *Validator) Validate(lang string, s Submission) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"detail": err.Error()}
	}
	trans := v.translator(lang)
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, ok := fields[fe.Field()]; ok {
			continue
		}
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields
}

func (v *Validator) translator(lang string) ut.Translator {
	if trans, found := v.uni.GetTranslator(strings.ToLower(strings.TrimSpace(lang))); found {
		return trans
	}
	return v.fallback
}
