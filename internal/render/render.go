// Package render produces the HTML handed to the browser: the entry form and
// the self-contained print document.
//
// The print document carries its own styles (the design tokens of the bill:
// colors, borders, spacing, font sizes and the A4 page box) and references no
// external stylesheet, so it prints the same from a blank window.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/models"
)

//go:embed templates/*.html templates/*.css
var templateFS embed.FS

// Options configures a Renderer.
type Options struct {
	CurrencySymbol string
	Locale         string // BCP 47, e.g. "en-US", "en-IN"
	AutoPrint      bool   // open the print dialog when the print document loads
}

// Renderer executes the embedded templates. It is safe for concurrent use.
type Renderer struct {
	tmpl      *template.Template
	printer   *message.Printer
	currency  string
	autoPrint bool
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	tag, err := language.Parse(opts.Locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	r := &Renderer{
		printer:   message.NewPrinter(tag),
		currency:  opts.CurrencySymbol,
		autoPrint: opts.AutoPrint,
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money":     r.Money,
		"longDate":  func(t time.Time) string { return t.Format("January 2, 2006") },
		"shortDate": func(t time.Time) string { return t.Format("1/2/2006") },
	}).ParseFS(templateFS, "templates/*.html", "templates/*.css")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.tmpl = tmpl

	return r, nil
}

// Money formats an amount with the currency symbol and locale digit grouping.
func (r *Renderer) Money(amount float64) string {
	return r.currency + r.printer.Sprintf("%.2f", amount)
}

type documentView struct {
	*bill.Document
	Title     string
	Preview   bool
	AutoPrint bool
	PageCSS   template.CSS
	GridCSS   template.CSS
	BillStyle template.CSS
	Hidden    []hiddenField
}

type hiddenField struct {
	Name  string
	Value string
}

// RenderPreview writes the document for on-screen preview, with print and
// download actions that re-post the same snapshot.
func (r *Renderer) RenderPreview(w io.Writer, doc *bill.Document) error {
	return r.renderDocument(w, doc, true, false)
}

// RenderPrint writes the print document. With AutoPrint it opens the print
// dialog on load.
func (r *Renderer) RenderPrint(w io.Writer, doc *bill.Document) error {
	return r.renderDocument(w, doc, false, r.autoPrint)
}

func (r *Renderer) renderDocument(w io.Writer, doc *bill.Document, preview, autoPrint bool) error {
	view := documentView{
		Document:  doc,
		Title:     "Fee Bill - " + doc.Student.Name,
		Preview:   preview,
		AutoPrint: autoPrint,
		PageCSS:   pageCSS(layout.A4),
		GridCSS:   gridCSS(doc.Layout),
		BillStyle: billStyle(doc.Layout),
		Hidden:    hiddenFields(doc),
	}
	if err := r.tmpl.ExecuteTemplate(w, "bill.html", view); err != nil {
		return fmt.Errorf("failed to render bill %s: %w", doc.Number, err)
	}
	return nil
}

func pageCSS(p layout.Page) template.CSS {
	return template.CSS(fmt.Sprintf("@page { size: %s; margin: %s; }", p.Name, p.Margin))
}

func gridCSS(s layout.Spec) template.CSS {
	var b strings.Builder
	fmt.Fprintf(&b, ".copies { display: grid; gap: %s; grid-template-columns: %s; }\n", s.Gap, s.GridTemplate())
	fmt.Fprintf(&b, "@media (min-width: 768px), print { .copies { grid-template-columns: %s; } }", s.WideGridTemplate())
	return template.CSS(b.String())
}

// billStyle shrinks each copy uniformly; width is widened by the inverse so
// the scaled copy still fills its grid cell.
func billStyle(s layout.Spec) template.CSS {
	if s.Scale <= 0 || s.Copies == 1 {
		return ""
	}
	return template.CSS(fmt.Sprintf("transform: scale(%.2f); transform-origin: top left; width: %.2f%%;", s.Scale, 100/s.Scale))
}

func hiddenFields(doc *bill.Document) []hiddenField {
	fields := []hiddenField{
		{Name: form.FieldName, Value: doc.Student.Name},
		{Name: form.FieldClass, Value: doc.Student.Class},
		{Name: form.FieldRollNumber, Value: doc.Student.RollNumber},
		{Name: form.FieldBillType, Value: string(doc.Student.BillType)},
		{Name: form.FieldCopies, Value: fmt.Sprint(doc.Layout.Copies)},
	}
	for _, c := range models.AllComponents {
		fields = append(fields, hiddenField{
			Name:  form.FeePrefix + string(c),
			Value: fmt.Sprintf("%.2f", doc.Fees.Get(c)),
		})
	}
	return fields
}

// FeeRow is one fee input of the entry form.
type FeeRow struct {
	Name  string // input name, e.g. "fee.academic"
	Label string
	Value float64
	Max   float64
}

// Option is a select option.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// FormView is the data of the entry form.
type FormView struct {
	Institution string
	Values      form.StudentForm
	Classes     []Option
	BillTypes   []Option
	Copies      []Option
	Fees        []FeeRow
	Errors      *form.ValidationError
	Notice      string
}

// NewFormView fills the option lists for the entry form, marking the
// selected class, bill type and copy count.
func NewFormView(institution string, values form.StudentForm, classes []string, copies []int, selectedCopies int, fees, baseline models.FeeData) FormView {
	v := FormView{Institution: institution, Values: values}

	for _, c := range classes {
		v.Classes = append(v.Classes, Option{Value: c, Label: c, Selected: strings.EqualFold(c, values.Class)})
	}
	for _, t := range models.BillTypes {
		v.BillTypes = append(v.BillTypes, Option{
			Value:    string(t),
			Label:    t.Label(),
			Selected: string(t) == values.BillType,
		})
	}
	for _, n := range copies {
		label := fmt.Sprintf("%d Copies", n)
		if n == 1 {
			label = "1 Copy"
		}
		v.Copies = append(v.Copies, Option{Value: fmt.Sprint(n), Label: label, Selected: n == selectedCopies})
	}
	for _, c := range models.AllComponents {
		if c.Extended() && baseline.Get(c) == 0 {
			continue
		}
		v.Fees = append(v.Fees, FeeRow{
			Name:  form.FeePrefix + string(c),
			Label: c.Label(),
			Value: fees.Get(c),
			Max:   baseline.Get(c),
		})
	}
	return v
}

// RenderForm writes the entry form.
func (r *Renderer) RenderForm(w io.Writer, view FormView) error {
	if err := r.tmpl.ExecuteTemplate(w, "form.html", view); err != nil {
		return fmt.Errorf("failed to render form: %w", err)
	}
	return nil
}
