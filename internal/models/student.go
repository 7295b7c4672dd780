package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBillType is returned when a bill type identifier is not recognized.
var ErrUnknownBillType = errors.New("unknown bill type")

// BillType selects how fee components are grouped into bill lines.
type BillType string

const (
	// BillTypeFlat lists every component on its own line (legacy 4-field copy).
	BillTypeFlat BillType = "flat"
	// BillTypeTwoPart shows academic fee and everything else.
	BillTypeTwoPart BillType = "2-part"
	// BillTypeThreePart shows academic, uniform and everything else.
	BillTypeThreePart BillType = "3-part"
	// BillTypeFivePart shows each component, with lab and miscellaneous combined.
	BillTypeFivePart BillType = "5-part"
)

// DefaultBillType is preselected on the entry form.
const DefaultBillType = BillTypeThreePart

// BillTypes lists the bill types offered on the entry form.
var BillTypes = []BillType{BillTypeTwoPart, BillTypeThreePart, BillTypeFivePart, BillTypeFlat}

// billTypeAliases maps identifiers used by older form revisions.
var billTypeAliases = map[string]BillType{
	"academic-only": BillTypeTwoPart,
	"basic-package": BillTypeThreePart,
	"full-package":  BillTypeFivePart,
	"legacy":        BillTypeFlat,
	"4-field":       BillTypeFlat,
}

// Valid reports whether t is a known bill type.
func (t BillType) Valid() bool {
	switch t {
	case BillTypeFlat, BillTypeTwoPart, BillTypeThreePart, BillTypeFivePart:
		return true
	}
	return false
}

// Label returns the name shown on the bill.
func (t BillType) Label() string {
	switch t {
	case BillTypeFlat:
		return "Itemized Bill"
	case BillTypeTwoPart:
		return "2-Part Bill"
	case BillTypeThreePart:
		return "3-Part Bill"
	case BillTypeFivePart:
		return "5-Part Bill"
	default:
		return string(t)
	}
}

// ParseBillType resolves a bill type identifier, including legacy aliases.
func ParseBillType(s string) (BillType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if t := BillType(key); t.Valid() {
		return t, nil
	}
	if t, ok := billTypeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBillType, s)
}

// StudentData is the submitted entry form.
// It is only produced by a complete, validated submission and is treated as
// read-only afterwards.
type StudentData struct {
	// Name is the student's full name (letters and spaces).
	Name string `json:"name"`

	// Class is one of the classes of the fee schedule, e.g. "Class 1".
	// It selects the baseline fees.
	Class string `json:"class"`

	// RollNumber is free text assigned by the institution.
	RollNumber string `json:"rollNumber"`

	// BillType selects the grouping used on the bill.
	BillType BillType `json:"billType"`
}
