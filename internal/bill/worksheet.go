package bill

import (
	"errors"
	"strings"

	"github.com/mmynk/feebill/internal/calculator"
	"github.com/mmynk/feebill/internal/layout"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/schedule"
)

// ErrNotSubmitted is returned when a document is requested before the
// student form was submitted.
var ErrNotSubmitted = errors.New("student form has not been submitted")

// Worksheet is the state of one bill entry session: the selected class,
// its baseline, the (possibly reduced) fees, the submitted student and the
// copy count.
//
// Worksheet is a value. Every operation returns a new Worksheet and leaves
// the receiver untouched, so a caller can keep the previous snapshot.
type Worksheet struct {
	resolver schedule.Resolver
	layout   *layout.Engine

	class    string
	baseline models.FeeData
	fees     models.FeeData
	student  *models.StudentData
	copies   int
}

// NewWorksheet starts a session on the default class with full fees and
// one copy.
func NewWorksheet(resolver schedule.Resolver, engine *layout.Engine) Worksheet {
	baseline := resolver.Resolve("")
	return Worksheet{
		resolver: resolver,
		layout:   engine,
		baseline: baseline,
		fees:     baseline,
		copies:   engine.Normalize(1),
	}
}

// SelectClass switches to class and resets fees to its baseline.
// Edits made for the previous class are discarded.
func (w Worksheet) SelectClass(class string) Worksheet {
	w.class = strings.TrimSpace(class)
	w.baseline = w.resolver.Resolve(w.class)
	w.fees = w.baseline
	return w
}

// EditFee applies a raw form edit (field name and typed text) under the
// decrease-only policy. On error the returned Worksheet equals w.
func (w Worksheet) EditFee(name, raw string) (Worksheet, calculator.Adjustment, error) {
	fees, adj, err := calculator.AdjustByName(w.fees, name, raw, w.baseline)
	if err != nil {
		return w, adj, err
	}
	w.fees = fees
	return w, adj, nil
}

// SetFee is EditFee for an already parsed component and amount.
func (w Worksheet) SetFee(c models.FeeComponent, amount float64) (Worksheet, calculator.Adjustment, error) {
	fees, adj, err := calculator.Adjust(w.fees, c, amount, w.baseline)
	if err != nil {
		return w, adj, err
	}
	w.fees = fees
	return w, adj, nil
}

// Submit records validated student data. A class different from the
// selected one is selected first, which resets the fees.
func (w Worksheet) Submit(student models.StudentData) Worksheet {
	if !strings.EqualFold(strings.TrimSpace(student.Class), w.class) {
		w = w.SelectClass(student.Class)
	}
	w.student = &student
	return w
}

// Reset clears the submitted student, keeping class and fees.
func (w Worksheet) Reset() Worksheet {
	w.student = nil
	return w
}

// SetCopies changes the copy count, snapped to a supported value.
func (w Worksheet) SetCopies(n int) Worksheet {
	w.copies = w.layout.Normalize(n)
	return w
}

// Class is the selected class as typed.
func (w Worksheet) Class() string { return w.class }

// Baseline is the fee ceiling for the selected class.
func (w Worksheet) Baseline() models.FeeData { return w.baseline }

// Fees are the current fees.
func (w Worksheet) Fees() models.FeeData { return w.fees }

// Copies is the current copy count.
func (w Worksheet) Copies() int { return w.copies }

// Student returns the submitted student, if any.
func (w Worksheet) Student() (models.StudentData, bool) {
	if w.student == nil {
		return models.StudentData{}, false
	}
	return *w.student, true
}

// Document composes the bill for the current snapshot.
func (w Worksheet) Document(c *Composer) (*Document, error) {
	if w.student == nil {
		return nil, ErrNotSubmitted
	}
	return c.Compose(*w.student, w.fees, w.copies)
}
