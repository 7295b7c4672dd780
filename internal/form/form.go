// Package form validates the student entry form.
// A submission either yields complete StudentData or a *ValidationError;
// nothing partial leaves this package.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/mmynk/feebill/internal/models"
)

// Form field names, shared with the HTML entry form.
const (
	FieldName       = "name"
	FieldClass      = "class"
	FieldRollNumber = "rollNumber"
	FieldBillType   = "billType"
	FieldCopies     = "copies"

	// FeePrefix prefixes fee inputs: "fee.academic", "fee.uniform", ...
	FeePrefix = "fee."
)

var (
	// custom validation tags
	notBlankTag   = "notblank"
	alphaSpaceTag = "alphaspace"
	knownClassTag = "knownclass"
	billTypeTag   = "billtype"
	requiredTag   = "required"
)

// StudentForm is the raw entry form.
type StudentForm struct {
	Name       string `json:"name" validate:"required,notblank,alphaspace,max=100"`
	Class      string `json:"class" validate:"required,notblank,knownclass"`
	RollNumber string `json:"rollNumber" validate:"required,notblank,max=32"`
	BillType   string `json:"billType" validate:"required,billtype"`
}

// ClassSet is the enumerated list of classes the form accepts.
type ClassSet interface {
	Has(classID string) bool
	Canonical(classID string) string
}

// Validator checks submissions against the class list.
// It is safe for concurrent use once built.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
	classes    ClassSet
}

// NewValidator builds a Validator with English messages.
func NewValidator(classes ClassSet) *Validator {
	validate := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate, translator: translator, classes: classes}

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(alphaSpaceTag, alphaSpaceValidation)
	_ = validate.RegisterValidation(knownClassTag, v.knownClassValidation)
	_ = validate.RegisterValidation(billTypeTag, billTypeValidation)

	v.registerMessage(requiredTag, "this field is required")
	v.registerMessage(notBlankTag, "this field cannot be blank")
	v.registerMessage(alphaSpaceTag, "only letters and spaces are allowed")
	v.registerMessage(knownClassTag, "select a class from the list")
	v.registerMessage(billTypeTag, "unknown bill type")

	return v
}

// registerMessage overrides the message of tag.
func (v *Validator) registerMessage(tag, text string) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Submit validates f and returns the StudentData it describes.
// The class is returned in its canonical spelling and legacy bill type
// identifiers are mapped to current ones.
func (v *Validator) Submit(f StudentForm) (models.StudentData, error) {
	f.Name = strings.Join(strings.Fields(f.Name), " ")
	f.Class = strings.TrimSpace(f.Class)
	f.RollNumber = strings.TrimSpace(f.RollNumber)
	f.BillType = strings.TrimSpace(f.BillType)

	if err := v.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.StudentData{}, fmt.Errorf("failed to validate form: %w", err)
		}
		out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
		for _, fe := range verrs {
			out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Error: fe.Translate(v.translator)})
		}
		return models.StudentData{}, out
	}

	billType, _ := models.ParseBillType(f.BillType) // checked by the billtype tag
	return models.StudentData{
		Name:       f.Name,
		Class:      v.classes.Canonical(f.Class),
		RollNumber: f.RollNumber,
		BillType:   billType,
	}, nil
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// alphaSpaceValidation only allows letters and spaces.
func alphaSpaceValidation(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

func (v *Validator) knownClassValidation(fl validator.FieldLevel) bool {
	return v.classes.Has(fl.Field().String())
}

func billTypeValidation(fl validator.FieldLevel) bool {
	_, err := models.ParseBillType(fl.Field().String())
	return err == nil
}

// FromValues reads the student fields of a posted form.
// A missing bill type defaults to models.DefaultBillType.
func FromValues(values url.Values) StudentForm {
	f := StudentForm{
		Name:       values.Get(FieldName),
		Class:      values.Get(FieldClass),
		RollNumber: values.Get(FieldRollNumber),
		BillType:   values.Get(FieldBillType),
	}
	if f.BillType == "" {
		f.BillType = string(models.DefaultBillType)
	}
	return f
}

// FeeEdit is one posted fee input.
type FeeEdit struct {
	Name string
	Raw  string
}

// FeeEdits returns the posted fee inputs ("fee.<component>") sorted by name.
// Names are not checked here; the adjustment policy rejects unknown ones.
func FeeEdits(values url.Values) []FeeEdit {
	var edits []FeeEdit
	for key, vals := range values {
		name, ok := strings.CutPrefix(key, FeePrefix)
		if !ok || len(vals) == 0 {
			continue
		}
		edits = append(edits, FeeEdit{Name: name, Raw: vals[len(vals)-1]})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Name < edits[j].Name })
	return edits
}

// Copies reads the copy count; anything unparsable is 1.
func Copies(values url.Values) int {
	n, err := strconv.Atoi(strings.TrimSpace(values.Get(FieldCopies)))
	if err != nil {
		return 1
	}
	return n
}
