package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/feebill/internal/models"
)

func TestDefaultScheduleClassOne(t *testing.T) {
	s := Default()

	want := models.FeeData{Academic: 4000, Uniform: 1000, Book: 600, Transport: 1200, Lab: 200, Miscellaneous: 250}
	assert.Equal(t, want, s.Resolve("Class 1"))
	assert.Equal(t, "Class 1", s.DefaultClass())
	assert.Len(t, s.Classes(), 12)
}

func TestResolveAllClassesNonNegative(t *testing.T) {
	s := Default()
	for _, class := range s.Classes() {
		fees := s.Resolve(class)
		for _, c := range models.AllComponents {
			assert.GreaterOrEqual(t, fees.Get(c), 0.0, "%s %s", class, c)
		}
		assert.Greater(t, fees.Academic, 0.0, class)
	}
}

func TestResolveUnknownFallsBackToDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, s.Resolve("Class 1"), s.Resolve("Class 99"))
	assert.Equal(t, s.Resolve("Class 1"), s.Resolve(""))
	assert.False(t, s.Has("Class 99"))
	assert.Equal(t, "Class 1", s.Canonical("Class 99"))
}

func TestResolveNormalizesAndAliases(t *testing.T) {
	s := Default()

	assert.Equal(t, s.Resolve("Class 10"), s.Resolve("  class   10 "))
	assert.Equal(t, s.Resolve("Class 10"), s.Resolve("Grade 10"))
	assert.Equal(t, s.Resolve("Class 12"), s.Resolve("XII"))
	assert.Equal(t, "Class 6", s.Canonical("grade 6"))
	assert.True(t, s.Has("class vi"))
}

func TestResolveIsDeterministic(t *testing.T) {
	s := Default()
	assert.Equal(t, s.Resolve("Class 7"), s.Resolve("Class 7"))
}

func TestExtendedComponentsOnlyForSeniorClasses(t *testing.T) {
	s := Default()
	assert.Zero(t, s.Resolve("Class 1").Hostel)
	assert.Equal(t, 3000.0, s.Resolve("Class 6").Hostel)
	assert.Equal(t, 2500.0, s.Resolve("Class 6").Mess)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "no classes",
			doc:     "version: '1'\ndefault: A\nclasses: []\n",
			wantErr: "no classes",
		},
		{
			name: "negative fee",
			doc: `default: A
classes:
  - name: A
    fees: {academic: -1}
`,
			wantErr: "non-negative",
		},
		{
			name: "missing default",
			doc: `default: B
classes:
  - name: A
    fees: {academic: 10}
`,
			wantErr: "default class",
		},
		{
			name: "duplicate alias",
			doc: `default: A
classes:
  - name: A
    aliases: [X]
    fees: {academic: 10}
  - name: B
    aliases: [x]
    fees: {academic: 20}
`,
			wantErr: "used by both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCustomSchedule(t *testing.T) {
	doc := `version: "test"
default: Nursery
classes:
  - name: Nursery
    fees: {academic: 1500, uniform: 500}
  - name: KG
    aliases: [Kindergarten]
    fees: {academic: 1800, uniform: 500, transport: 700}
`
	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "test", s.Version())
	assert.Equal(t, []string{"Nursery", "KG"}, s.Classes())
	assert.Equal(t, 700.0, s.Resolve("kindergarten").Transport)
	assert.Equal(t, 1500.0, s.Resolve("Class 1").Academic)
}
