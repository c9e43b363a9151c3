package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	otpRegex        = regexp.MustCompile(`^[0-9]{6}$`)
	cardNumberRegex = regexp.MustCompile(`^[0-9]{16}$`)
	cardExpiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvRegex        = regexp.MustCompile(`^[0-9]{3,4}$`)
	upiIDRegex      = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
)

func init() {
	validate = validator.New()
	validate.SetTagName("binding")
	registerValidations(validate)

	// Request bodies are bound by gin; give its engine the same rules.
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerValidations(engine)
	}
}

func registerValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("otp", validateOTP)
	_ = v.RegisterValidation("card_number", regexValidation(cardNumberRegex))
	_ = v.RegisterValidation("card_expiry", regexValidation(cardExpiryRegex))
	_ = v.RegisterValidation("cvv", regexValidation(cvvRegex))
	_ = v.RegisterValidation("upi_id", regexValidation(upiIDRegex))
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationDetails flattens validator errors into field -> rule.
func ValidationDetails(err error) map[string]string {
	details := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["body"] = err.Error()
		return details
	}

	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

func validateOTP(fl validator.FieldLevel) bool {
	return IsValidOTP(fl.Field().String())
}

func regexValidation(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// IsValidOTP reports whether code is exactly six ASCII digits.
func IsValidOTP(code string) bool {
	return otpRegex.MatchString(code)
}
