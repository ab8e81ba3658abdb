package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire and in the store.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date pinned to UTC midnight.
	Date struct {
		time.Time
	}

	// DateRange is inclusive on both ends.
	DateRange struct {
		Start Date
		End   Date
	}

	Expense struct {
		ID          int64
		Date        Date
		Amount      decimal.Decimal
		Category    string
		Subcategory string
		Note        string
	}

	Income struct {
		ID     int64
		Date   Date
		Amount decimal.Decimal
		Source string
		Note   string
	}

	// ExpensePatch carries the fields an edit should touch. A nil field is
	// left unchanged; a non-nil field is written, whatever its value.
	ExpensePatch struct {
		Date        *Date
		Amount      *decimal.Decimal
		Category    *string
		Subcategory *string
		Note        *string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidRange     = errors.New("invalid date range")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptySource      = errors.New("empty source")
	ErrNoFieldsToUpdate = errors.New("no fields provided to update")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Value implements driver.Valuer. Dates travel as plain calendar strings so
// that both DATE columns and SQLite's text storage compare them correctly.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), int(v.Month()), v.Day())
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *Date) scanText(s string) error {
	// Drivers may hand back "2024-01-02 00:00:00+00:00" or an RFC3339 stamp.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewDateRange parses both bounds. A start after the end is allowed and
// simply matches nothing.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	return DateRange{Start: s, End: e}, nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	return nil
}

// IsEmpty reports whether the patch touches no field at all.
func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Category == nil && p.Subcategory == nil && p.Note == nil
}

// Validate checks the supplied fields against the same rules as Expense.
// Subcategory and note accept any value, including empty.
func (p ExpensePatch) Validate() error {
	if p.IsEmpty() {
		return ErrNoFieldsToUpdate
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
