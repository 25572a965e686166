// Package scenario defines named counterfactual shocks, loaded from YAML or
// built from flags, and turns them into simulate.Transform values.
package scenario

import (
	"bytes"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/cfsim/internal/simulate"
)

// Kind selects the transform family of a shock.
type Kind string

const (
	KindIdentity     Kind = "identity"
	KindShift        Kind = "shift"
	KindProportional Kind = "proportional"
	KindZeroRedist   Kind = "zero-and-redistribute"
)

// DefaultName is the scenario used when none is selected.
const DefaultName = "default"

// Shock configures one named scenario. Only the parameters of its Kind are read.
type Shock struct {
	Name        string  `yaml:"name" mapstructure:"name" validate:"required"`
	Kind        Kind    `yaml:"kind" mapstructure:"kind" validate:"required,oneof=identity shift proportional zero-and-redistribute"`
	Description string  `yaml:"description,omitempty" mapstructure:"description"`
	S1          float64 `yaml:"s1,omitempty" mapstructure:"s1"`
	S2          float64 `yaml:"s2,omitempty" mapstructure:"s2"`
	S3          float64 `yaml:"s3,omitempty" mapstructure:"s3"`
	Factor      float64 `yaml:"factor,omitempty" mapstructure:"factor" validate:"gte=0"`
	ToS2        float64 `yaml:"to_s2,omitempty" mapstructure:"to_s2" validate:"gte=0,lte=1"`
	ToS3        float64 `yaml:"to_s3,omitempty" mapstructure:"to_s3" validate:"gte=0,lte=1"`
}

// File is the top-level layout of a scenarios YAML file.
type File struct {
	Scenarios []Shock `yaml:"scenarios" validate:"min=1,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in scenarios: the baseline identity and the
// standard shift of s1 by -0.1 into s2.
func Default() []Shock {
	return []Shock{
		{Name: "baseline", Kind: KindIdentity, Description: "no change"},
		{Name: DefaultName, Kind: KindShift, S1: -0.1, S2: 0.1, Description: "move 0.1 of s1 into s2"},
	}
}

// Load reads and validates a scenarios file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates scenarios YAML. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, eris.Wrap(err, "scenario: parse")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every scenario and that names are unique.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return eris.Wrap(err, "scenario: validate")
	}
	seen := make(map[string]bool, len(f.Scenarios))
	for _, s := range f.Scenarios {
		if seen[s.Name] {
			return eris.Errorf("scenario: duplicate name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Get returns the scenario called name.
func (f *File) Get(name string) (Shock, error) {
	for _, s := range f.Scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return Shock{}, eris.Errorf("scenario: %q not found", name)
}

// Names lists scenario names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Scenarios))
	for i, s := range f.Scenarios {
		names[i] = s.Name
	}
	return names
}

// Validate checks a single scenario.
func (s Shock) Validate() error {
	if err := validate.Struct(s); err != nil {
		return eris.Wrapf(err, "scenario: validate %q", s.Name)
	}
	return nil
}

// Transform builds the simulate.Transform for s. The transform reports the
// scenario name rather than the kind.
func (s Shock) Transform() (simulate.Transform, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var t simulate.Transform
	switch s.Kind {
	case KindIdentity:
		t = simulate.Identity{}
	case KindShift:
		t = simulate.ShiftShock{DS1: s.S1, DS2: s.S2, DS3: s.S3}
	case KindProportional:
		t = simulate.ProportionalShock{Factor: s.Factor}
	case KindZeroRedist:
		t = simulate.ZeroAndRedistribute{ToS2: s.ToS2, ToS3: s.ToS3}
	default:
		return nil, eris.Errorf("scenario: unknown kind %q", s.Kind)
	}
	return simulate.TransformFunc{Label: s.Name, Fn: t.Apply}, nil
}
