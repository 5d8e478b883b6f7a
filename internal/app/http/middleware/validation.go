package middleware

import (
	"errors"
	"strings"

	"parity-app/internal/domain/products"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the app's struct rules to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterStructValidation(countryDiscountRule, products.CountryDiscountInput{})
	return nil
}

// A coupon without a discount is rejected instead of being treated as a removal.
func countryDiscountRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(products.CountryDiscountInput)
	if strings.TrimSpace(in.Coupon) != "" && in.DiscountPercentage == nil {
		sl.ReportError(in.DiscountPercentage, "discountPercentage", "DiscountPercentage", "required_with_coupon", "")
	}
}
