package pricing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table holds the rates the engine prices a window with.
// Dimensions are in inches, glass rates per square foot, frame rates per linear foot.
type Table struct {
	Currency     string             `yaml:"currency" json:"currency"`
	BaseFee      float64            `yaml:"base_fee" json:"baseFee"`
	GlassRates   map[string]float64 `yaml:"glass_rates" json:"glassRates"`
	FrameRates   map[string]float64 `yaml:"frame_rates" json:"frameRates"`
	OptionFees   map[string]float64 `yaml:"option_fees" json:"optionFees"`
	DefaultFrame string             `yaml:"default_frame" json:"defaultFrame"`
	MinDimension float64            `yaml:"min_dimension" json:"minDimension"`
	MaxDimension float64            `yaml:"max_dimension" json:"maxDimension"`
	MaxQuantity  int                `yaml:"max_quantity" json:"maxQuantity"`
}

// DefaultTable is the built-in price list used when no PRICING_FILE is configured.
func DefaultTable() *Table {
	return &Table{
		Currency: "USD",
		BaseFee:  45,
		GlassRates: map[string]float64{
			"single":   4.5,
			"double":   7.25,
			"triple":   10.5,
			"tempered": 9,
			"low-e":    8.5,
		},
		FrameRates: map[string]float64{
			"vinyl":      6,
			"aluminum":   8,
			"wood":       11.5,
			"fiberglass": 10,
		},
		OptionFees: map[string]float64{
			"grids":   25,
			"screen":  18,
			"tint":    30,
			"obscure": 22,
		},
		DefaultFrame: "vinyl",
		MinDimension: 12,
		MaxDimension: 120,
		MaxQuantity:  100,
	}
}

// LoadTable reads a YAML price table. Missing fields are taken from DefaultTable.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	table := DefaultTable()
	var file Table
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pricing file %s: %w", path, err)
	}
	table.merge(&file)

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("pricing file %s: %w", path, err)
	}
	return table, nil
}

func (t *Table) merge(o *Table) {
	if o.Currency != "" {
		t.Currency = strings.ToUpper(o.Currency)
	}
	if o.BaseFee != 0 {
		t.BaseFee = o.BaseFee
	}
	if len(o.GlassRates) > 0 {
		t.GlassRates = normalizeKeys(o.GlassRates)
	}
	if len(o.FrameRates) > 0 {
		t.FrameRates = normalizeKeys(o.FrameRates)
	}
	if len(o.OptionFees) > 0 {
		t.OptionFees = normalizeKeys(o.OptionFees)
	}
	if o.DefaultFrame != "" {
		t.DefaultFrame = strings.ToLower(o.DefaultFrame)
	}
	if o.MinDimension != 0 {
		t.MinDimension = o.MinDimension
	}
	if o.MaxDimension != 0 {
		t.MaxDimension = o.MaxDimension
	}
	if o.MaxQuantity != 0 {
		t.MaxQuantity = o.MaxQuantity
	}
}

// Validate checks the table is usable by the engine.
func (t *Table) Validate() error {
	if t.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if t.BaseFee < 0 {
		return fmt.Errorf("base_fee must not be negative")
	}
	if len(t.GlassRates) == 0 || len(t.FrameRates) == 0 {
		return fmt.Errorf("glass_rates and frame_rates are required")
	}
	if _, ok := t.FrameRates[t.DefaultFrame]; !ok {
		return fmt.Errorf("default_frame %q has no rate", t.DefaultFrame)
	}
	if t.MinDimension <= 0 || t.MaxDimension < t.MinDimension {
		return fmt.Errorf("invalid dimension bounds [%v, %v]", t.MinDimension, t.MaxDimension)
	}
	if t.MaxQuantity <= 0 {
		return fmt.Errorf("max_quantity must be positive")
	}
	for name, rates := range map[string]map[string]float64{
		"glass_rates": t.GlassRates, "frame_rates": t.FrameRates, "option_fees": t.OptionFees,
	} {
		for k, v := range rates {
			if v < 0 {
				return fmt.Errorf("%s.%s must not be negative", name, k)
			}
		}
	}
	return nil
}

// GlassTypes returns the known glass keys, sorted.
func (t *Table) GlassTypes() []string { return sortedKeys(t.GlassRates) }

// FrameMaterials returns the known frame keys, sorted.
func (t *Table) FrameMaterials() []string { return sortedKeys(t.FrameRates) }

// Options returns the known option keys, sorted.
func (t *Table) Options() []string { return sortedKeys(t.OptionFees) }

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
