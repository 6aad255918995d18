package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"window_calculator/internal/models"
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("invalid calculation input")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// WindowSpec is the typed view of a calculation input.
type WindowSpec struct {
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	GlassType     string   `json:"glassType"`
	FrameMaterial string   `json:"frameMaterial"`
	Quantity      int      `json:"quantity"`
	Options       []string `json:"options,omitempty"`
}

// Breakdown lists the components of the unit price.
type Breakdown struct {
	Base    float64 `json:"base"`
	Glass   float64 `json:"glass"`
	Frame   float64 `json:"frame"`
	Options float64 `json:"options"`
}

type Quote struct {
	Spec      WindowSpec
	Area      float64 // square feet
	Perimeter float64 // linear feet
	UnitPrice float64
	Price     float64
	Currency  string
	Breakdown Breakdown
}

// AsResult flattens the quote into the fields returned to the client.
func (q Quote) AsResult() models.CalculationResult {
	result := models.CalculationResult{
		"price":         q.Price,
		"currency":      q.Currency,
		"unitPrice":     q.UnitPrice,
		"quantity":      q.Spec.Quantity,
		"width":         q.Spec.Width,
		"height":        q.Spec.Height,
		"area":          q.Area,
		"perimeter":     q.Perimeter,
		"glassType":     q.Spec.GlassType,
		"frameMaterial": q.Spec.FrameMaterial,
		"breakdown": map[string]any{
			"base":    q.Breakdown.Base,
			"glass":   q.Breakdown.Glass,
			"frame":   q.Breakdown.Frame,
			"options": q.Breakdown.Options,
		},
	}
	if len(q.Spec.Options) > 0 {
		result["options"] = q.Spec.Options
	}
	return result
}

// Engine prices windows against a Table. Safe for concurrent use: the table is never mutated.
type Engine struct {
	table *Table
}

func NewEngine(table *Table) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	return &Engine{table: table}
}

func (e *Engine) Table() *Table {
	return e.table
}

// Calculate prices a raw calculation input.
func (e *Engine) Calculate(ctx context.Context, input models.CalculationInput) (models.CalculationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, err := e.ParseSpec(input)
	if err != nil {
		return nil, err
	}
	q, err := e.Quote(spec)
	if err != nil {
		return nil, err
	}
	return q.AsResult(), nil
}

// ParseSpec reads the known fields of a raw input and applies defaults.
func (e *Engine) ParseSpec(input models.CalculationInput) (WindowSpec, error) {
	var spec WindowSpec
	var err error

	if spec.Width, err = number(input, "width"); err != nil {
		return spec, err
	}
	if spec.Height, err = number(input, "height"); err != nil {
		return spec, err
	}

	spec.GlassType, _ = input["glassType"].(string)
	spec.FrameMaterial, _ = input["frameMaterial"].(string)

	spec.Quantity = 1
	if _, ok := input["quantity"]; ok {
		q, err := number(input, "quantity")
		if err != nil {
			return spec, err
		}
		if q != math.Trunc(q) || q < 1 {
			return spec, invalid("quantity", "must be a whole number of at least 1")
		}
		spec.Quantity = int(q)
	}

	switch opts := input["options"].(type) {
	case nil:
	case string:
		spec.Options = []string{opts}
	case []string:
		spec.Options = opts
	case []any:
		for _, o := range opts {
			s, ok := o.(string)
			if !ok {
				return spec, invalid("options", "must be a list of strings")
			}
			spec.Options = append(spec.Options, s)
		}
	default:
		return spec, invalid("options", "must be a list of strings")
	}

	return spec, nil
}

// Quote validates a spec and prices it.
func (e *Engine) Quote(spec WindowSpec) (Quote, error) {
	t := e.table

	spec.GlassType = strings.ToLower(strings.TrimSpace(spec.GlassType))
	spec.FrameMaterial = strings.ToLower(strings.TrimSpace(spec.FrameMaterial))
	if spec.FrameMaterial == "" {
		spec.FrameMaterial = t.DefaultFrame
	}
	if spec.Quantity == 0 {
		spec.Quantity = 1
	}

	for field, v := range map[string]float64{"width": spec.Width, "height": spec.Height} {
		if math.IsNaN(v) || v < t.MinDimension || v > t.MaxDimension {
			return Quote{}, invalid(field, "must be between %v and %v inches", t.MinDimension, t.MaxDimension)
		}
	}
	if spec.Quantity < 1 || spec.Quantity > t.MaxQuantity {
		return Quote{}, invalid("quantity", "must be between 1 and %d", t.MaxQuantity)
	}
	if spec.GlassType == "" {
		return Quote{}, invalid("glassType", "is required")
	}
	glassRate, ok := t.GlassRates[spec.GlassType]
	if !ok {
		return Quote{}, invalid("glassType", "unknown glass type %q", spec.GlassType)
	}
	frameRate, ok := t.FrameRates[spec.FrameMaterial]
	if !ok {
		return Quote{}, invalid("frameMaterial", "unknown frame material %q", spec.FrameMaterial)
	}

	optionsTotal := 0.0
	seen := make(map[string]bool, len(spec.Options))
	options := make([]string, 0, len(spec.Options))
	for _, o := range spec.Options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" || seen[key] {
			continue
		}
		fee, ok := t.OptionFees[key]
		if !ok {
			return Quote{}, invalid("options", "unknown option %q", o)
		}
		seen[key] = true
		options = append(options, key)
		optionsTotal += fee
	}
	spec.Options = options

	area := spec.Width * spec.Height / 144
	perimeter := 2 * (spec.Width + spec.Height) / 12

	b := Breakdown{
		Base:    models.RoundCents(t.BaseFee),
		Glass:   models.RoundCents(area * glassRate),
		Frame:   models.RoundCents(perimeter * frameRate),
		Options: models.RoundCents(optionsTotal),
	}
	unit := models.RoundCents(b.Base + b.Glass + b.Frame + b.Options)

	return Quote{
		Spec:      spec,
		Area:      models.RoundCents(area),
		Perimeter: models.RoundCents(perimeter),
		UnitPrice: unit,
		Price:     models.RoundCents(unit * float64(spec.Quantity)),
		Currency:  t.Currency,
		Breakdown: b,
	}, nil
}

func number(input models.CalculationInput, field string) (float64, error) {
	f, err := rawNumber(input, field)
	if err != nil {
		return 0, err
	}
	// NaN et ±Inf passent les comparaisons de bornes et ne s'encodent pas en JSON
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(field, "must be a number")
	}
	return f, nil
}

func rawNumber(input models.CalculationInput, field string) (float64, error) {
	switch v := input[field].(type) {
	case nil:
		return 0, invalid(field, "is required")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, invalid(field, "must be a number")
		}
		return f, nil
	default:
		return 0, invalid(field, "must be a number")
	}
}
