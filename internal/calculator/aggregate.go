// Package calculator implements the fee adjustment policy and bill aggregation.
//
// Everything here is pure: results depend only on the arguments.
package calculator

import (
	"log/slog"

	"github.com/mmynk/feebill/internal/models"
)

// group is one bill line: a label and the components summed into it.
type group struct {
	label      string
	components []models.FeeComponent
}

// Aggregate groups fee components into bill lines according to shape and
// computes totals.
//
// Each line's Amount is the sum of the current fees of its components and
// OriginalAmount the sum of their baselines. Due is reported as
// max(0, TotalBaseline - Total).
//
// An unknown shape yields an empty Summary. That indicates a mismatch
// between the submitted bill type and this package, so it is logged.
func Aggregate(fees, baseline models.FeeData, shape models.BillType) models.Summary {
	groups, ok := groupsFor(shape, baseline)
	if !ok {
		slog.Warn("Unknown bill type, producing empty bill", "bill_type", string(shape))
		return models.Summary{Items: []models.BillLineItem{}}
	}

	summary := models.Summary{Items: make([]models.BillLineItem, 0, len(groups))}
	for _, g := range groups {
		item := models.BillLineItem{
			Label:          g.label,
			Amount:         fees.Sum(g.components...),
			OriginalAmount: baseline.Sum(g.components...),
		}
		summary.Items = append(summary.Items, item)
		summary.Total += item.Amount
		summary.TotalBaseline += item.OriginalAmount
	}

	if due := summary.TotalBaseline - summary.Total; due > 0 {
		summary.Due = due
	}
	return summary
}

func groupsFor(shape models.BillType, baseline models.FeeData) ([]group, bool) {
	switch shape {
	case models.BillTypeFlat:
		var groups []group
		for _, c := range models.AllComponents {
			if c.Extended() && baseline.Get(c) == 0 {
				continue
			}
			groups = append(groups, single(c))
		}
		return groups, true

	case models.BillTypeTwoPart:
		return []group{
			single(models.Academic),
			{
				label:      "Other Charges (Uniform, Books, Transport, Lab, Misc.)",
				components: except(models.Academic),
			},
		}, true

	case models.BillTypeThreePart:
		return []group{
			single(models.Academic),
			single(models.Uniform),
			{
				label:      "Books & Other Charges",
				components: except(models.Academic, models.Uniform),
			},
		}, true

	case models.BillTypeFivePart:
		groups := []group{
			single(models.Academic),
			single(models.Uniform),
			single(models.Book),
			single(models.Transport),
			{
				label:      "Lab & Miscellaneous Fee",
				components: []models.FeeComponent{models.Lab, models.Miscellaneous},
			},
		}
		for _, c := range models.AllComponents {
			if c.Extended() && baseline.Get(c) > 0 {
				groups = append(groups, single(c))
			}
		}
		return groups, true
	}
	return nil, false
}

func single(c models.FeeComponent) group {
	return group{label: c.Label(), components: []models.FeeComponent{c}}
}

// except returns every component other than the given ones, in bill order.
func except(skip ...models.FeeComponent) []models.FeeComponent {
	var out []models.FeeComponent
	for _, c := range models.AllComponents {
		excluded := false
		for _, s := range skip {
			if c == s {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, c)
		}
	}
	return out
}
