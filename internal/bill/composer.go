// Package bill turns a submitted form into a render-ready bill document.
package bill

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/feebill/internal/calculator"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/metrics"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/schedule"
)

// ErrIncompleteStudent is returned when student data is missing a required field.
var ErrIncompleteStudent = errors.New("student data is incomplete")

// DefaultDueDays is the payment term used when none is configured.
const DefaultDueDays = 30

// Institution is printed in the bill header and footer.
type Institution struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Options configures a Composer.
type Options struct {
	Institution Institution

	// DueDays is the payment term; zero means DefaultDueDays.
	DueDays int

	// AcademicYear is printed under the title. Empty derives it from the
	// issue date with the year starting in April.
	AcademicYear string

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	Metrics *metrics.Metrics
}

// Copy is one printed instance of the bill.
type Copy struct {
	Number  int            `json:"number"`
	Summary models.Summary `json:"summary"`
}

// Document is a fully resolved bill: student, grouped fees for every copy
// and the page layout. It is what the print and export collaborators consume.
type Document struct {
	ID            string             `json:"id"`
	Number        string             `json:"number"`
	Institution   Institution        `json:"institution"`
	Student       models.StudentData `json:"student"`
	BillTypeLabel string             `json:"billTypeLabel"`
	IssueDate     time.Time          `json:"issueDate"`
	DueDate       time.Time          `json:"dueDate"`
	AcademicYear  string             `json:"academicYear"`
	Fees          models.FeeData     `json:"fees"`
	Baseline      models.FeeData     `json:"baseline"`
	Summary       models.Summary     `json:"summary"`
	Copies        []Copy             `json:"copies"`
	Layout        layout.Spec        `json:"layout"`
}

// Composer builds Documents. It is immutable and safe for concurrent use.
type Composer struct {
	resolver schedule.Resolver
	layout   *layout.Engine
	opts     Options
}

// NewComposer creates a Composer over a fee schedule and a layout engine.
func NewComposer(resolver schedule.Resolver, engine *layout.Engine, opts Options) *Composer {
	if opts.DueDays == 0 {
		opts.DueDays = DefaultDueDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{resolver: resolver, layout: engine, opts: opts}
}

// Layout exposes the composer's layout engine.
func (c *Composer) Layout() *layout.Engine {
	return c.layout
}

// Resolver exposes the composer's fee schedule.
func (c *Composer) Resolver() schedule.Resolver {
	return c.resolver
}

// Compose resolves the baseline for the student's class, clamps fees to it,
// groups them by bill type and lays out copies.
//
// The baseline is always re-derived from student.Class, so fees prepared
// against another class can never exceed what this class allows.
func (c *Composer) Compose(student models.StudentData, fees models.FeeData, copies int) (*Document, error) {
	if missing := missingFields(student); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteStudent, strings.Join(missing, ", "))
	}

	baseline := c.resolver.Resolve(student.Class)
	fees = calculator.ClampAll(fees, baseline)

	if !student.BillType.Valid() {
		slog.Warn("Composing bill with unknown bill type",
			"bill_type", string(student.BillType),
			"class", student.Class,
		)
		c.opts.Metrics.UnknownBillType()
	}
	summary := calculator.Aggregate(fees, baseline, student.BillType)
	spec := c.layout.Layout(copies)

	issued := c.opts.Now()
	id := uuid.New()
	doc := &Document{
		ID:            id.String(),
		Number:        billNumber(issued, id),
		Institution:   c.opts.Institution,
		Student:       student,
		BillTypeLabel: student.BillType.Label(),
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, c.opts.DueDays),
		AcademicYear:  c.academicYear(issued),
		Fees:          fees,
		Baseline:      baseline,
		Summary:       summary,
		Copies:        make([]Copy, spec.Copies),
		Layout:        spec,
	}
	for i := range doc.Copies {
		doc.Copies[i] = Copy{Number: i + 1, Summary: cloneSummary(summary)}
	}

	c.opts.Metrics.BillComposed(string(student.BillType))
	slog.Debug("Bill composed",
		"bill_number", doc.Number,
		"class", student.Class,
		"bill_type", string(student.BillType),
		"copies", spec.Copies,
		"total", summary.Total,
		"due", summary.Due,
	)
	return doc, nil
}

func (c *Composer) academicYear(issued time.Time) string {
	if c.opts.AcademicYear != "" {
		return c.opts.AcademicYear
	}
	return AcademicYear(issued)
}

// AcademicYear returns the "2024-2025" style year containing t, with the
// year starting in April.
func AcademicYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}

// billNumber is a short printable reference: FB-20241018-1A2B3C4D.
func billNumber(issued time.Time, id uuid.UUID) string {
	return fmt.Sprintf("FB-%s-%s", issued.Format("20060102"), strings.ToUpper(id.String()[:8]))
}

func missingFields(s models.StudentData) []string {
	var missing []string
	if strings.TrimSpace(s.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.Class) == "" {
		missing = append(missing, "class")
	}
	if strings.TrimSpace(s.RollNumber) == "" {
		missing = append(missing, "roll number")
	}
	return missing
}

func cloneSummary(s models.Summary) models.Summary {
	s.Items = append(make([]models.BillLineItem, 0, len(s.Items)), s.Items...)
	return s
}
