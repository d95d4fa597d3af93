// Package refdata is the read-only reference data behind the prompt builder:
// region insights, time-frame guidance, age bands, the innovation catalog
// and the demo scenarios.
package refdata

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var dataYAML []byte

//go:embed safety.txt
var safetyText string

type Fellow struct {
	Name         string   `yaml:"name" json:"name"`
	ChildRights  []string `yaml:"childRights" json:"childRights"`
	Workshops    int      `yaml:"workshops" json:"workshops"`
	Participants int      `yaml:"participants" json:"participants"`
	Quote        string   `yaml:"quote" json:"quote"`
	FocusAreas   []string `yaml:"focusAreas" json:"focusAreas"`
}

type Region struct {
	Key               string   `yaml:"key" json:"region"`
	Theme             string   `yaml:"theme" json:"theme"`
	CurrentChallenges string   `yaml:"currentChallenges" json:"currentChallenges"`
	PreferredFuture   string   `yaml:"preferredFuture" json:"preferredFuture"`
	ScanHit           string   `yaml:"scanHit" json:"scanHit"`
	Names             []string `yaml:"names" json:"-"`
	Fellow            Fellow   `yaml:"fellow" json:"fellow"`
}

type TimeFrameGuidance struct {
	Year            string `yaml:"year" json:"year"`
	Tier            string `yaml:"tier" json:"tier"`
	InnovationCount int    `yaml:"innovationCount" json:"innovationCount"`
	Novelty         string `yaml:"novelty" json:"novelty"`
	Description     string `yaml:"description" json:"description"`
	Constraints     string `yaml:"constraints" json:"constraints"`
	Examples        string `yaml:"examples" json:"examples"`
	DisplayText     string `yaml:"displayText" json:"displayText"`
	Breakthrough    string `yaml:"breakthrough" json:"-"`
}

// AgeBand covers ages up to MaxAge inclusive; MaxAge 0 means no upper bound.
type AgeBand struct {
	MaxAge         int    `yaml:"maxAge" json:"-"`
	Level          string `yaml:"level" json:"level"`
	Label          string `yaml:"label" json:"label"`
	Focus          string `yaml:"focus" json:"focus"`
	Considerations string `yaml:"considerations" json:"considerations"`
}

type document struct {
	Regions       []Region            `yaml:"regions"`
	TimeFrames    []TimeFrameGuidance `yaml:"timeFrames"`
	AgeBands      []AgeBand           `yaml:"ageBands"`
	GenericNames  []string            `yaml:"genericNames"`
	Framings      []string            `yaml:"framings"`
	Innovations   []string            `yaml:"innovations"`
	DemoScenarios map[string]string   `yaml:"demoScenarios"`
	GenericDemo   string              `yaml:"genericDemo"`
}

// Store is immutable after Load and safe for concurrent readers.
// Slice getters return copies.
type Store struct {
	regions     map[string]Region
	regionOrder []string
	timeFrames  map[string]TimeFrameGuidance
	ageBands    []AgeBand
	names       []string
	framings    []string
	innovations []string
	demos       map[string]string
	genericDemo string
	safety      string
}

// Load decodes the embedded reference data.
func Load() (*Store, error) {
	return Parse(dataYAML, safetyText)
}

// MustLoad is Load for process start-up and tests.
func MustLoad() *Store {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// Parse builds a Store from raw YAML and a safety block.
func Parse(raw []byte, safety string) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	if len(doc.Regions) == 0 || len(doc.TimeFrames) == 0 || len(doc.Innovations) == 0 {
		return nil, fmt.Errorf("reference data incomplete: %d regions, %d time frames, %d innovations",
			len(doc.Regions), len(doc.TimeFrames), len(doc.Innovations))
	}

	s := &Store{
		regions:     make(map[string]Region, len(doc.Regions)),
		timeFrames:  make(map[string]TimeFrameGuidance, len(doc.TimeFrames)),
		ageBands:    doc.AgeBands,
		names:       doc.GenericNames,
		framings:    doc.Framings,
		innovations: doc.Innovations,
		demos:       doc.DemoScenarios,
		genericDemo: doc.GenericDemo,
		safety:      strings.TrimSpace(safety),
	}
	for _, r := range doc.Regions {
		if _, dup := s.regions[r.Key]; dup {
			return nil, fmt.Errorf("duplicate region %q", r.Key)
		}
		s.regions[r.Key] = r
		s.regionOrder = append(s.regionOrder, r.Key)
	}
	for _, tf := range doc.TimeFrames {
		s.timeFrames[tf.Year] = tf
	}

	// Bands are matched first-fit; the open band must sort last.
	sort.SliceStable(s.ageBands, func(i, j int) bool {
		a, b := s.ageBands[i].MaxAge, s.ageBands[j].MaxAge
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})
	return s, nil
}

// Region returns the insights for key. The returned Names slice is a copy.
func (s *Store) Region(key string) (Region, bool) {
	r, ok := s.regions[key]
	if !ok {
		return Region{}, false
	}
	r.Names = copyStrings(r.Names)
	r.Fellow.ChildRights = copyStrings(r.Fellow.ChildRights)
	r.Fellow.FocusAreas = copyStrings(r.Fellow.FocusAreas)
	return r, true
}

// Regions lists region keys in catalog order.
func (s *Store) Regions() []string {
	return copyStrings(s.regionOrder)
}

func (s *Store) TimeFrame(year string) (TimeFrameGuidance, bool) {
	tf, ok := s.timeFrames[year]
	return tf, ok
}

// TimeFrames lists guidance in ascending year order.
func (s *Store) TimeFrames() []TimeFrameGuidance {
	out := make([]TimeFrameGuidance, 0, len(s.timeFrames))
	for _, tf := range s.timeFrames {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// AgeContext returns the band containing age.
func (s *Store) AgeContext(age int) (AgeBand, bool) {
	for _, b := range s.ageBands {
		if b.MaxAge == 0 || age <= b.MaxAge {
			return b, true
		}
	}
	return AgeBand{}, false
}

// NamesFor returns the region's character names, or the generic list.
func (s *Store) NamesFor(region string) []string {
	if r, ok := s.regions[region]; ok && len(r.Names) > 0 {
		return copyStrings(r.Names)
	}
	return copyStrings(s.names)
}

func (s *Store) Framings() []string {
	return copyStrings(s.framings)
}

func (s *Store) Innovations() []string {
	return copyStrings(s.innovations)
}

// DemoScenario returns the prewritten scenario for region and year.
func (s *Store) DemoScenario(region, year string) (string, bool) {
	text, ok := s.demos[region+"-"+year]
	return text, ok
}

// GenericDemo is the placeholder used when no demo scenario exists.
func (s *Store) GenericDemo(region, year string) string {
	return strings.NewReplacer("{region}", region, "{year}", year).Replace(s.genericDemo)
}

// SafetyInstructions is the constant block that opens every prompt.
func (s *Store) SafetyInstructions() string {
	return s.safety
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
