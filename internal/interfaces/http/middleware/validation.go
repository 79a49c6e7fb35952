package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/interfaces/http/dto"
)

// barcodePattern matches scanner barcodes: letters, digits and hyphens
var barcodePattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,50}$`)

var setupOnce sync.Once

// SetupValidator configures gin's validator: JSON field names in errors and
// the barcode tag. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
			return barcodePattern.MatchString(fl.Field().String())
		})
	})
}

// FormatValidationErrors formats binding errors into an INVALID_REQUEST response.
// Errors other than field validation (malformed JSON) produce no field list.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: getValidationMessage(e),
			})
		}
		return dto.Invalid("Request validation failed", requestID, details)
	}
	return dto.Invalid("Malformed request body", requestID, nil)
}

// HandleValidationError writes a 400 response for a binding error, or a 413
// when the body ran past BodyLimit
func HandleValidationError(c *gin.Context, err error) {
	if limit, ok := bodyTooLarge(err); ok {
		rejectTooLarge(c, limit)
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString(logger.GinRequestIDKey)))
}

// fieldPath drops the top-level struct name: "products[0].quantity"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// validationMessages holds the fixed messages, keyed by tag. Tags with
// a parameter are formatted in getValidationMessage.
var validationMessages = map[string]string{
	"required": "This field is required",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"barcode":  "Barcode can only contain letters, digits and hyphens (max 50)",
}

// getValidationMessage turns a field error into the message shown next to
// the field at the till
func getValidationMessage(e validator.FieldError) string {
	if msg, ok := validationMessages[e.Tag()]; ok {
		return msg
	}

	p := e.Param()
	switch e.Tag() {
	case "min", "max":
		bound := map[string]string{"min": "least", "max": "most"}[e.Tag()]
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("Must be at %s %s characters", bound, p)
		case reflect.Slice:
			return fmt.Sprintf("Must contain at %s %s item(s)", bound, p)
		}
		return fmt.Sprintf("Must be at %s %s", bound, p)
	case "gt":
		return "Must be greater than " + p
	case "gte":
		return "Must be greater than or equal to " + p
	case "oneof":
		return "Must be one of: " + p
	case "datetime":
		return "Must be a date formatted as " + p
	}
	return "Invalid value"
}
