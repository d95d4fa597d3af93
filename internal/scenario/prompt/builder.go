// Package prompt assembles generation and refinement prompts from reference
// data, the request and a random innovation sample. It does no I/O.
package prompt

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/scenario"
	"worldbuilder/internal/scenario/refdata"
	"worldbuilder/internal/scenario/safety"
)

// Source is the randomness the builder draws from.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource makes a caller-supplied *rand.Rand safe for concurrent builds.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

type Builder struct {
	store *refdata.Store
	rng   Source
	now   func() time.Time
}

type Option func(*Builder)

// WithRand fixes the random source, e.g. a seeded PCG in tests.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) { b.rng = &lockedSource{r: r} }
}

// WithClock overrides the timestamp used in the uniqueness directive.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func New(store *refdata.Store, opts ...Option) *Builder {
	b := &Builder{store: store, rng: globalSource{}, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// resolved is the reference data a request points at.
type resolved struct {
	region   refdata.Region
	guidance refdata.TimeFrameGuidance
	year     string
}

func (b *Builder) resolve(region string, tf scenario.TimeFrame) (*resolved, error) {
	r, ok := b.store.Region(region)
	if !ok {
		return nil, errors.NewRegionNotFoundError(region)
	}
	year := tf.Year()
	g, ok := b.store.TimeFrame(year)
	if !ok {
		return nil, errors.NewTimeFrameNotFoundError(tf.String())
	}
	return &resolved{region: r, guidance: g, year: year}, nil
}

// BuildGeneration composes the prompt for a fresh scenario.
func (b *Builder) BuildGeneration(req scenario.GenerationRequest) (string, error) {
	ref, err := b.resolve(req.Region, req.TimeFrame)
	if err != nil {
		return "", err
	}

	region := req.Region
	year := ref.year
	research := req.Mode == scenario.ResearchBased
	name := b.pick(b.store.NamesFor(region))
	framing := b.pick(b.store.Framings())
	innovations := b.sample(b.store.Innovations(), ref.guidance.InnovationCount)
	direction := safety.SanitizedText(req.CustomDirection)

	age := ""
	if req.LearnerAge != nil {
		age = strconv.Itoa(*req.LearnerAge)
	}

	var parts []string

	parts = append(parts, b.store.SafetyInstructions(), "")

	parts = append(parts, fmt.Sprintf(
		"CREATIVITY & UNIQUENESS REQUIREMENT: This is generation #%d at %d. Create a COMPLETELY UNIQUE scenario that is different from any previous generation. Be creative, unexpected, and original!",
		b.rng.IntN(10000), b.now().UnixMilli()), "")

	if age != "" {
		parts = append(parts, fmt.Sprintf(
			"MANDATORY REQUIREMENT: The main character in this scenario MUST be exactly %s years old. Do NOT use age 15 or any other age. Use %s throughout the entire scenario.",
			age, age), "")
		parts = append(parts, fmt.Sprintf("SCENARIO FOCUS: Create %s story featuring %s, a %s-year-old student in %s.", framing, name, age, region), "")
	} else {
		parts = append(parts,
			"MANDATORY REQUIREMENT: Choose ONE specific age for the main character, state it clearly near the start, and use that same age throughout the entire scenario.", "")
		parts = append(parts, fmt.Sprintf("SCENARIO FOCUS: Create %s story featuring %s, a student in %s whose age you choose.", framing, name, region), "")
	}

	if research {
		parts = append(parts,
			fmt.Sprintf("You are helping create an imaginative education scenario for %s based on UNICEF's Youth Foresight Fellows research.", year),
			"",
			fmt.Sprintf("CONTEXT: Young people from %s have identified key challenges and visions for education futures through the Young Visionaries project.", region),
			"",
			fmt.Sprintf("REGIONAL INSIGHTS FOR %s (from Youth Foresight Fellows research):", region),
			"- Current Theme: "+ref.region.Theme,
			"- Key Challenges: "+ref.region.CurrentChallenges,
			"- Preferred Future Vision: "+ref.region.PreferredFuture,
			"- Regional Focus Area: "+ref.region.ScanHit,
			"")
	} else {
		ageWords := "chosen age"
		if age != "" {
			ageWords = "age " + age
		}
		parts = append(parts,
			fmt.Sprintf("You are helping create a completely fresh, imaginative education scenario for %s using your knowledge of %s's educational context, cultural factors, socioeconomic conditions, and current challenges.", year, region),
			"",
			fmt.Sprintf("FRESH SCENARIO APPROACH FOR %s:", region),
			fmt.Sprintf("- Use your understanding of %s's educational system, culture, and context", region),
			"- Consider region-specific challenges like infrastructure, language, economic factors, and social dynamics",
			fmt.Sprintf("- Ensure the scenario feels authentic to %s's educational and cultural environment", region),
			fmt.Sprintf("- Focus on what YOU determine is most appropriate for %s given the %s timeframe and %s student", region, year, ageWords),
			"- Focus entirely on your own knowledge and understanding of the region",
			fmt.Sprintf("- Draw inspiration from the available innovations below to create something uniquely suited to %s's context", region),
			"")
	}

	parts = append(parts, "CHARACTER REQUIREMENTS (CRITICAL):")
	if age != "" {
		parts = append(parts, fmt.Sprintf("- Main character name: %s, age: EXACTLY %s years old (NOT 15, NOT any other age)", name, age))
	} else {
		parts = append(parts, fmt.Sprintf("- Main character name: %s, choose a specific age between 8-17 and state it clearly", name))
	}
	parts = append(parts,
		"- Gender: Randomly select male, female, or non-binary (do not default to female)",
		fmt.Sprintf("- Make the character feel authentic to %s", region),
		"- Give the character unique personality traits, interests, and background",
		"")

	if age != "" {
		if band, ok := b.store.AgeContext(*req.LearnerAge); ok {
			parts = append(parts,
				fmt.Sprintf("EDUCATIONAL CONTEXT FOR AGE %s:", age),
				"- Educational Level: "+band.Level,
				"- Learning Focus: "+band.Focus,
				"- Key Considerations: "+band.Considerations,
				"")
		}
	}

	parts = append(parts,
		fmt.Sprintf("TIME FRAME GUIDANCE - %s (%s):", ref.guidance.Novelty, year),
		ref.guidance.Description,
		"Constraints: "+ref.guidance.Constraints,
		"Examples at this horizon: "+ref.guidance.Examples,
		"Breakthrough latitude: "+ref.guidance.Breakthrough,
		"")

	parts = append(parts,
		"AVAILABLE EDUCATIONAL INNOVATIONS TO DRAW FROM:",
		"Select and weave in 3-5 of these possibilities that fit your scenario:",
		"",
		bullets(innovations),
		"")

	parts = append(parts, creativityInstructions, "", stirdeeperInstructions, "", storyStructure, "")

	if research {
		parts = append(parts, fmt.Sprintf("START WITH: Use the existing Young Visionaries scenario vision from %s as your foundation, but project it forward to %s incorporating relevant innovations from the list above.", region, year), "")
	} else {
		parts = append(parts, fmt.Sprintf("CREATE NEW: Generate a completely fresh scenario for %s in %s using your knowledge of the region. Rely entirely on your understanding of %s's educational context, challenges, and opportunities.", region, year, region), "")
	}

	if direction != "" {
		parts = append(parts, "USER DIRECTION: "+direction, "")
	}

	if age != "" {
		parts = append(parts,
			fmt.Sprintf("FINAL REMINDER: Your main character must be %s years old - verify this before writing.", age),
			"",
			fmt.Sprintf("Please create a scenario (250-300 words) featuring a %s-year-old student in %s, %s. State the character's age (%s) explicitly in the story.", age, region, year, age))
	} else {
		parts = append(parts,
			"FINAL REMINDER: Your main character must be the specific age you choose - verify this before writing.",
			"",
			fmt.Sprintf("Please create a scenario (250-300 words) featuring a student in %s, %s. State the character's age explicitly in the story.", region, year))
	}

	return strings.Join(parts, "\n"), nil
}

// sample draws k distinct entries with a partial Fisher-Yates shuffle over a
// copy of items. Every call reshuffles.
func (b *Builder) sample(items []string, k int) []string {
	if k > len(items) {
		k = len(items)
	}
	for i := 0; i < k; i++ {
		j := i + b.rng.IntN(len(items)-i)
		items[i], items[j] = items[j], items[i]
	}
	return items[:k]
}

func (b *Builder) pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[b.rng.IntN(len(items))]
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

const creativityInstructions = `CREATIVITY & VARIETY INSTRUCTIONS:
- Create a UNIQUE story that hasn't been told before - avoid generic scenarios
- Use unexpected plot twists, surprising discoveries, or unusual learning situations
- Make the scenario emotionally engaging and memorable
- Include specific, vivid details that bring the story to life
- Don't mention all innovations - select 3-5 that work well together for your specific scenario
- Integrate them naturally into the story rather than listing them
- Show how they work in practice through the character's experience
- Focus on the human impact and learning outcomes, not just the technology`

const stirdeeperInstructions = `STIRDEEPER FOCUS INSTRUCTIONS:
Focus deeply on just 2-3 STIRDEEPER categories (choose different ones than typical):
- SOCIAL: Changes in how people interact, learn together, and build community
- ENVIRONMENTAL: Climate impacts and sustainability in education
- POLITICAL: Governance, policy, and power structures in education
- EDUCATIONAL: Pedagogical approaches and learning methods
- ECONOMIC: New economic models for education and work
- TECHNOLOGICAL: Innovations that enhance learning (use sparingly)`

const storyStructure = `STORY STRUCTURE VARIETY:
- Start with an unexpected situation or challenge
- Include dialogue and personal interactions
- Show the character's emotions and growth
- End with a meaningful resolution or new beginning`
