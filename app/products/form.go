package products

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mytheresa/inventory/models"
)

// CreateProductForm holds the raw form-encoded input of a new product.
type CreateProductForm struct {
	Name         string `form:"name" validate:"required,max=50"`
	SKU          string `form:"sku" validate:"required,max=20"`
	Code         string `form:"code" validate:"max=20"`
	Brand        string `form:"brand" validate:"max=50"`
	Model        string `form:"model" validate:"max=50"`
	Description  string `form:"description" validate:"max=500"`
	Quantity     string `form:"quantity"`
	RestockLevel string `form:"restockLevel"`
	OptimalLevel string `form:"optimalLevel"`
	Cost         string `form:"cost"`
	Price        string `form:"price"`
	Categories   []string
	Images       []string
}

// ValidationErrors maps a form field to the first problem found with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = v[f]
	}
	return strings.Join(msgs, "; ")
}

var fieldLabels = map[string]string{
	"name":         "Name",
	"sku":          "SKU",
	"code":         "Code",
	"brand":        "Brand",
	"model":        "Model",
	"description":  "Description",
	"quantity":     "Quantity",
	"restockLevel": "Restock level",
	"optimalLevel": "Optimal level",
	"cost":         "Cost",
	"price":        "Price",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	return v
}

// ParseCreateProductForm reads a form-encoded request body. Categories may be
// sent as repeated fields or as one comma-joined value.
func ParseCreateProductForm(r *http.Request) (CreateProductForm, error) {
	if err := r.ParseForm(); err != nil {
		return CreateProductForm{}, fmt.Errorf("invalid form body: %w", err)
	}
	f := r.PostForm
	return CreateProductForm{
		Name:         f.Get("name"),
		SKU:          f.Get("sku"),
		Code:         f.Get("code"),
		Brand:        f.Get("brand"),
		Model:        f.Get("model"),
		Description:  f.Get("description"),
		Quantity:     f.Get("quantity"),
		RestockLevel: f.Get("restockLevel"),
		OptimalLevel: f.Get("optimalLevel"),
		Cost:         f.Get("cost"),
		Price:        f.Get("price"),
		Categories:   f["categories"],
		Images:       nonEmpty(f["images"]),
	}, nil
}

// Validate checks every field and, when all pass, returns the draft to persist.
// Empty optional strings become NULL columns.
func (f CreateProductForm) Validate() (models.ProductDraft, ValidationErrors) {
	errs := ValidationErrors{}

	if err := validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs["form"] = err.Error()
			return models.ProductDraft{}, errs
		}
		for _, fe := range fieldErrs {
			if _, seen := errs[fe.Field()]; !seen {
				errs[fe.Field()] = fieldMessage(fe)
			}
		}
	}

	draft := models.ProductDraft{
		Name:        f.Name,
		SKU:         f.SKU,
		Code:        optional(f.Code),
		Brand:       optional(f.Brand),
		Model:       optional(f.Model),
		Description: optional(f.Description),
		Categories:  f.Categories,
		ImageURLs:   f.Images,
	}

	numbers := []struct {
		field string
		raw   string
		dest  *int64
	}{
		{"quantity", f.Quantity, &draft.Quantity},
		{"restockLevel", f.RestockLevel, &draft.RestockLevel},
		{"optimalLevel", f.OptimalLevel, &draft.OptimalLevel},
		{"cost", f.Cost, &draft.Cost},
		{"price", f.Price, &draft.Price},
	}
	for _, n := range numbers {
		v, msg := parseCount(fieldLabels[n.field], n.raw)
		if msg != "" {
			errs[n.field] = msg
			continue
		}
		*n.dest = v
	}

	if len(errs) > 0 {
		return models.ProductDraft{}, errs
	}
	return draft, nil
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// parseCount parses a non-negative whole number that fits the BIGINT columns,
// treating blank input as 0.
func parseCount(label, raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, label + " must be a valid number"
	}
	if d.IsNegative() {
		return 0, label + " must be 0 or greater"
	}
	if !d.IsInteger() {
		return 0, label + " must be a whole number"
	}
	if !d.LessThanOrEqual(decimal.NewFromInt(math.MaxInt64)) {
		return 0, label + " is too large"
	}
	return d.IntPart(), ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
