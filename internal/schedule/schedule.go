// Package schedule resolves a class identifier to its baseline fees.
//
// The table is data, not code: it is read from a versioned YAML document
// (schedule.yaml is embedded as the default) so adding a class or a fee
// component never touches the resolver.
package schedule

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/mmynk/feebill/internal/models"
)

//go:embed schedule.yaml
var defaultSchedule []byte

// Resolver maps a class identifier to baseline fees.
type Resolver interface {
	Resolve(classID string) models.FeeData
}

// Ensure Schedule implements Resolver
var _ Resolver = (*Schedule)(nil)

type document struct {
	Version string       `mapstructure:"version"`
	Default string       `mapstructure:"default"`
	Classes []classEntry `mapstructure:"classes"`
}

type classEntry struct {
	Name    string         `mapstructure:"name"`
	Aliases []string       `mapstructure:"aliases"`
	Fees    models.FeeData `mapstructure:"fees"`
}

// Schedule is an immutable class → baseline fee table.
// It is safe for concurrent use.
type Schedule struct {
	version      string
	defaultIndex int
	classes      []classEntry
	index        map[string]int
}

// Load parses and validates a YAML schedule document.
func Load(r io.Reader) (*Schedule, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}

	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	return build(doc)
}

// LoadFile reads a schedule document from path.
func LoadFile(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

var loadDefault = sync.OnceValue(func() *Schedule {
	s, err := Load(bytes.NewReader(defaultSchedule))
	if err != nil {
		panic(fmt.Sprintf("schedule: embedded schedule is invalid: %v", err))
	}
	return s
})

// Default returns the embedded schedule.
func Default() *Schedule {
	return loadDefault()
}

func build(doc document) (*Schedule, error) {
	if len(doc.Classes) == 0 {
		return nil, fmt.Errorf("schedule has no classes")
	}

	s := &Schedule{
		version: doc.Version,
		classes: doc.Classes,
		index:   make(map[string]int, len(doc.Classes)*4),
	}

	for i, c := range doc.Classes {
		if normalize(c.Name) == "" {
			return nil, fmt.Errorf("class %d has no name", i+1)
		}
		for _, comp := range models.AllComponents {
			amount := c.Fees.Get(comp)
			if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
				return nil, fmt.Errorf("class %q: %s fee must be a non-negative number, got %v", c.Name, comp, amount)
			}
		}
		for _, key := range append([]string{c.Name}, c.Aliases...) {
			k := normalize(key)
			if k == "" {
				continue
			}
			if prev, dup := s.index[k]; dup {
				return nil, fmt.Errorf("class identifier %q is used by both %q and %q", key, doc.Classes[prev].Name, c.Name)
			}
			s.index[k] = i
		}
	}

	def, ok := s.index[normalize(doc.Default)]
	if !ok {
		return nil, fmt.Errorf("default class %q is not in the schedule", doc.Default)
	}
	s.defaultIndex = def

	return s, nil
}

// Resolve returns the baseline fees for classID.
// Unknown identifiers resolve to the default class; Resolve never fails.
func (s *Schedule) Resolve(classID string) models.FeeData {
	return s.classes[s.lookup(classID)].Fees
}

// Canonical returns the schedule's name for classID ("grade 1" → "Class 1"),
// falling back to the default class.
func (s *Schedule) Canonical(classID string) string {
	return s.classes[s.lookup(classID)].Name
}

// Has reports whether classID names a class or one of its aliases.
func (s *Schedule) Has(classID string) bool {
	_, ok := s.index[normalize(classID)]
	return ok
}

// Classes returns the class names in schedule order.
func (s *Schedule) Classes() []string {
	names := make([]string, len(s.classes))
	for i, c := range s.classes {
		names[i] = c.Name
	}
	return names
}

// DefaultClass is the class unknown identifiers fall back to.
func (s *Schedule) DefaultClass() string {
	return s.classes[s.defaultIndex].Name
}

// Version is the schedule document's version string.
func (s *Schedule) Version() string {
	return s.version
}

func (s *Schedule) lookup(classID string) int {
	if i, ok := s.index[normalize(classID)]; ok {
		return i
	}
	return s.defaultIndex
}

// normalize lower-cases and collapses whitespace so "  class   1" matches "Class 1".
func normalize(id string) string {
	return strings.ToLower(strings.Join(strings.Fields(id), " "))
}
