package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// ArgumentError reports tool arguments that could not be decoded or failed
// validation.
type ArgumentError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

type addExpenseRequest struct {
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Amount      *float64 `json:"amount" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Subcategory string   `json:"subcategory"`
	Note        string   `json:"note"`
}

func (r addExpenseRequest) expense() (core.Expense, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:        d,
		Amount:      decimal.NewFromFloat(*r.Amount),
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Note:        r.Note,
	}, nil
}

// editExpenseRequest uses pointers throughout: a key that is present and
// non-null is applied, whatever its value.
type editExpenseRequest struct {
	ExpenseID   *int64   `json:"expense_id" validate:"required"`
	Date        *string  `json:"date"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Subcategory *string  `json:"subcategory"`
	Note        *string  `json:"note"`
}

func (r editExpenseRequest) patch() (core.ExpensePatch, error) {
	p := core.ExpensePatch{
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Note:        r.Note,
	}
	if r.Date != nil {
		d, err := core.ParseDate(*r.Date)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		p.Date = &d
	}
	if r.Amount != nil {
		a := decimal.NewFromFloat(*r.Amount)
		p.Amount = &a
	}
	return p, nil
}

type deleteExpenseRequest struct {
	ExpenseID *int64 `json:"expense_id" validate:"required"`
}

type addIncomeRequest struct {
	Date   string   `json:"date" validate:"required,datetime=2006-01-02"`
	Amount *float64 `json:"amount" validate:"required"`
	Source string   `json:"source" validate:"required"`
	Note   string   `json:"note"`
}

func (r addIncomeRequest) income() (core.Income, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		Date:   d,
		Amount: decimal.NewFromFloat(*r.Amount),
		Source: r.Source,
		Note:   r.Note,
	}, nil
}

type rangeRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (r rangeRequest) dateRange() (core.DateRange, error) {
	return core.NewDateRange(r.StartDate, r.EndDate)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode maps loosely typed protocol arguments onto req and validates it.
func (r *Registry) decode(tool string, args map[string]any, req any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return &ArgumentError{Tool: tool, Reason: err.Error(), Err: err}
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return &ArgumentError{Tool: tool, Reason: describeDecodeError(err), Err: err}
	}
	if err := r.validate.Struct(req); err != nil {
		return &ArgumentError{Tool: tool, Reason: describeValidationError(err), Err: err}
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonKind(typeErr.Type))
	}
	return err.Error()
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.String()
	}
}

func describeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date in YYYY-MM-DD format, got %q", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
