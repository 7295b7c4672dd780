package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownComponent is returned when a fee component name is not recognized.
var ErrUnknownComponent = errors.New("unknown fee component")

// FeeComponent names one category of charge on a bill.
type FeeComponent string

const (
	Academic      FeeComponent = "academic"
	Uniform       FeeComponent = "uniform"
	Book          FeeComponent = "book"
	Transport     FeeComponent = "transport"
	Lab           FeeComponent = "lab"
	Miscellaneous FeeComponent = "miscellaneous"
	Hostel        FeeComponent = "hostel"
	Mess          FeeComponent = "mess"
)

// AllComponents lists every fee component in bill order.
var AllComponents = []FeeComponent{
	Academic, Uniform, Book, Transport, Lab, Miscellaneous, Hostel, Mess,
}

var componentLabels = map[FeeComponent]string{
	Academic:      "Academic Fee",
	Uniform:       "Uniform Fee",
	Book:          "Book Fee",
	Transport:     "Transport Fee",
	Lab:           "Lab Fee",
	Miscellaneous: "Miscellaneous Fee",
	Hostel:        "Hostel Fee",
	Mess:          "Mess Fee",
}

// Valid reports whether c is one of AllComponents.
func (c FeeComponent) Valid() bool {
	_, ok := componentLabels[c]
	return ok
}

// Label returns the human-readable bill label, e.g. "Academic Fee".
func (c FeeComponent) Label() string {
	if label, ok := componentLabels[c]; ok {
		return label
	}
	return string(c)
}

// Extended reports whether the component only applies to some classes
// (boarding charges). Extended components with no baseline are left off bills.
func (c FeeComponent) Extended() bool {
	return c == Hostel || c == Mess
}

// ParseFeeComponent resolves a form field name to a component.
// It accepts the canonical name ("academic"), the fee-suffixed field name
// used by the entry form ("academicFee") and "misc".
func ParseFeeComponent(name string) (FeeComponent, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, "fee")
	key = strings.TrimSuffix(key, "_")
	if key == "misc" {
		key = string(Miscellaneous)
	}
	c := FeeComponent(key)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return c, nil
}

// FeeData holds one non-negative amount per fee component.
//
// For the current form session every value must stay at or below the
// baseline of the selected class. That invariant is enforced by the
// calculator package, not here.
type FeeData struct {
	Academic      float64 `json:"academic" mapstructure:"academic"`
	Uniform       float64 `json:"uniform" mapstructure:"uniform"`
	Book          float64 `json:"book" mapstructure:"book"`
	Transport     float64 `json:"transport" mapstructure:"transport"`
	Lab           float64 `json:"lab" mapstructure:"lab"`
	Miscellaneous float64 `json:"miscellaneous" mapstructure:"miscellaneous"`
	Hostel        float64 `json:"hostel" mapstructure:"hostel"`
	Mess          float64 `json:"mess" mapstructure:"mess"`
}

// Get returns the amount for c. Unknown components read as zero.
func (f FeeData) Get(c FeeComponent) float64 {
	switch c {
	case Academic:
		return f.Academic
	case Uniform:
		return f.Uniform
	case Book:
		return f.Book
	case Transport:
		return f.Transport
	case Lab:
		return f.Lab
	case Miscellaneous:
		return f.Miscellaneous
	case Hostel:
		return f.Hostel
	case Mess:
		return f.Mess
	default:
		return 0
	}
}

// With returns a copy of f with c set to amount. f itself is not modified.
// Unknown components leave the copy unchanged.
func (f FeeData) With(c FeeComponent, amount float64) FeeData {
	switch c {
	case Academic:
		f.Academic = amount
	case Uniform:
		f.Uniform = amount
	case Book:
		f.Book = amount
	case Transport:
		f.Transport = amount
	case Lab:
		f.Lab = amount
	case Miscellaneous:
		f.Miscellaneous = amount
	case Hostel:
		f.Hostel = amount
	case Mess:
		f.Mess = amount
	}
	return f
}

// Sum adds the amounts of the given components.
func (f FeeData) Sum(components ...FeeComponent) float64 {
	var total float64
	for _, c := range components {
		total += f.Get(c)
	}
	return total
}

// Total is the sum of every component.
func (f FeeData) Total() float64 {
	return f.Sum(AllComponents...)
}
