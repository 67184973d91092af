package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const MsgRequired = "This field is required"

var (
	emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)
	cvvShape   = regexp.MustCompile(`^\d{3,4}$`)
	expiry     = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	digits16   = regexp.MustCompile(`^\d{16}$`)
)

var formatMessages = map[string]string{
	"required":    MsgRequired,
	"email_shape": "Invalid email format",
	"phone10":     "Invalid phone number",
	"card16":      "Invalid card number",
	"cvv":         "Invalid CVV",
	"expiry":      "Invalid expiry date (MM/YY)",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	must(v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}))
	must(v.RegisterValidation("card16", func(fl validator.FieldLevel) bool {
		return ValidCardNumber(fl.Field().String())
	}))
	must(v.RegisterValidation("cvv", func(fl validator.FieldLevel) bool {
		return cvvShape.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		return expiry.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidPhone reports whether s holds exactly ten digits once every
// non-digit is dropped.
func ValidPhone(s string) bool {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n == 10
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ValidCardNumber reports whether s is sixteen digits once whitespace is
// removed.
func ValidCardNumber(s string) bool {
	return digits16.MatchString(stripSpaces(s))
}

// Validate checks the fields a step owns and returns errors keyed
// "<section>_<field>". An empty map means the step may be left.
func Validate(f Form, step Step) map[string]string {
	errs := map[string]string{}
	switch step {
	case StepShipping:
		collect(errs, "shipping", f.ShippingInfo)
	case StepBilling:
		if !f.BillingInfo.SameAsShipping {
			collect(errs, "billing", f.BillingInfo)
		}
	case StepPayment:
		collect(errs, "payment", f.PaymentInfo)
	}
	return errs
}

func collect(errs map[string]string, section string, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[section] = err.Error()
		return
	}
	for _, fe := range verrs {
		msg, ok := formatMessages[fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		errs[section+"_"+fe.Field()] = msg
	}
}
