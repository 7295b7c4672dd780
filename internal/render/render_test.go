package render

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/schedule"
)

func newRenderer(t *testing.T, autoPrint bool) *Renderer {
	t.Helper()
	r, err := New(Options{CurrencySymbol: "$", Locale: "en-US", AutoPrint: autoPrint})
	require.NoError(t, err)
	return r
}

func compose(t *testing.T, billType models.BillType, fees models.FeeData, copies int) *bill.Document {
	t.Helper()
	c := bill.NewComposer(schedule.Default(), layout.Default(), bill.Options{
		Institution: bill.Institution{Name: "Tagsol Education Institute", Phone: "(555) 123-4567", Email: "info@tagsol.edu"},
		Now:         func() time.Time { return time.Date(2024, time.October, 18, 0, 0, 0, 0, time.UTC) },
	})
	doc, err := c.Compose(models.StudentData{
		Name:       "Asha Rao",
		Class:      "Class 1",
		RollNumber: "17",
		BillType:   billType,
	}, fees, copies)
	require.NoError(t, err)
	return doc
}

func TestMoney(t *testing.T) {
	r := newRenderer(t, false)
	assert.Equal(t, "$5,000.00", r.Money(5000))
	assert.Equal(t, "$0.00", r.Money(0))
	assert.Equal(t, "$1,234.50", r.Money(1234.5))
}

func TestNewUnknownLocaleFallsBack(t *testing.T) {
	r, err := New(Options{CurrencySymbol: "₹", Locale: "not a locale"})
	require.NoError(t, err)
	assert.Equal(t, "₹2,500.00", r.Money(2500))
}

func TestRenderPrint(t *testing.T) {
	fees := schedule.Default().Resolve("Class 1").With(models.Academic, 3000)
	doc := compose(t, models.BillTypeFivePart, fees, 1)

	var buf bytes.Buffer
	require.NoError(t, newRenderer(t, true).RenderPrint(&buf, doc))
	out := buf.String()

	for _, item := range doc.Summary.Items {
		assert.Contains(t, out, template.HTMLEscapeString(item.Label))
	}
	assert.Contains(t, out, "Tagsol Education Institute")
	assert.Contains(t, out, "FEE BILL")
	assert.Contains(t, out, "Academic Year 2024-2025")
	assert.Contains(t, out, "Asha Rao")
	assert.Contains(t, out, doc.Number)
	assert.Contains(t, out, "October 18, 2024")
	assert.Contains(t, out, "11/17/2024")
	assert.Contains(t, out, "5-Part Bill")
	assert.Contains(t, out, "$3,000.00")
	assert.Contains(t, out, "Outstanding Balance")
	assert.Contains(t, out, "@page { size: A4; margin: 0.5in; }")
	assert.Contains(t, out, "window.print()")

	assert.NotContains(t, out, `rel="stylesheet"`)
	assert.NotContains(t, out, "/print")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestRenderPrintWithoutAutoPrint(t *testing.T) {
	doc := compose(t, models.BillTypeTwoPart, schedule.Default().Resolve("Class 1"), 1)

	var buf bytes.Buffer
	require.NoError(t, newRenderer(t, false).RenderPrint(&buf, doc))
	assert.NotContains(t, buf.String(), "window.print()")
	assert.NotContains(t, buf.String(), "Outstanding Balance")
}

func TestRenderPreview(t *testing.T) {
	fees := schedule.Default().Resolve("Class 1").With(models.Book, 100)
	doc := compose(t, models.BillTypeThreePart, fees, 4)

	var buf bytes.Buffer
	require.NoError(t, newRenderer(t, true).RenderPreview(&buf, doc))
	out := buf.String()

	assert.NotContains(t, out, "window.print()")
	assert.Contains(t, out, `action="/print"`)
	assert.Contains(t, out, `action="/download"`)
	assert.Contains(t, out, `name="fee.book" value="100.00"`)
	assert.Contains(t, out, `name="billType" value="3-part"`)
	assert.Contains(t, out, `name="copies" value="4"`)
	assert.Equal(t, 4, strings.Count(out, `data-copy="`))
	assert.Contains(t, out, "transform: scale(0.45)")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestBillStyle(t *testing.T) {
	engine := layout.Default()
	assert.Empty(t, string(billStyle(engine.Layout(1))))
	assert.Contains(t, string(billStyle(engine.Layout(2))), "scale(0.75)")
	assert.Contains(t, string(billStyle(engine.Layout(6))), "width: 333.33%")
}

func TestRenderForm(t *testing.T) {
	r := newRenderer(t, false)
	sched := schedule.Default()
	baseline := sched.Resolve("Class 1")
	values := form.StudentForm{Name: "Asha Rao", Class: "Class 1", BillType: string(models.BillTypeFlat)}

	view := NewFormView("Tagsol Education Institute", values, sched.Classes(), []int{1, 2, 4}, 2, baseline.With(models.Academic, 3500), baseline)
	view.Errors = &form.ValidationError{Fields: []form.FieldError{{Field: form.FieldRollNumber, Error: "this field is required"}}}

	var buf bytes.Buffer
	require.NoError(t, r.RenderForm(&buf, view))
	out := buf.String()

	assert.Contains(t, out, `value="Class 1" selected`)
	assert.Contains(t, out, `value="flat" selected`)
	assert.Contains(t, out, `value="2" selected`)
	assert.Contains(t, out, `name="fee.academic" value="3500.00"`)
	assert.Contains(t, out, "this field is required")
	assert.NotContains(t, out, `name="fee.hostel"`)
}

func TestNewFormViewExtendedComponents(t *testing.T) {
	baseline := schedule.Default().Resolve("Class 6")
	view := NewFormView("x", form.StudentForm{Class: "Class 6"}, []string{"Class 6"}, []int{1}, 1, baseline, baseline)

	var names []string
	for _, f := range view.Fees {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "fee.hostel")
	assert.Contains(t, names, "fee.mess")
	assert.Len(t, view.Copies, 1)
	assert.Equal(t, "1 Copy", view.Copies[0].Label)
}
