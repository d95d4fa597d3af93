package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"worldbuilder/internal/scenario"
	"worldbuilder/internal/scenario/safety"
)

const maxRefinementInnovations = 15

var (
	feedbackTriggers = []string{"stirdeeper", "social", "political", "environmental"}
	focusKeywords    = []string{"social", "political", "environmental", "governance", "community", "cultural", "climate", "democracy", "peace"}
)

// BuildRefinement composes the prompt that enhances a previous scenario with
// user feedback while keeping its character and setting.
func (b *Builder) BuildRefinement(req scenario.RefinementRequest) (string, error) {
	ref, err := b.resolve(req.Region, req.TimeFrame)
	if err != nil {
		return "", err
	}

	region := req.Region
	liked := safety.SanitizedText(req.Feedback.Liked)
	disliked := safety.SanitizedText(req.Feedback.Disliked)
	innovations := b.refinementInnovations(disliked)

	character := ExtractCharacterName(req.PreviousScenario)
	setting := ExtractSetting(req.PreviousScenario)

	ageNote := "age as stated in the original scenario"
	ageShort := "the age stated in the original"
	if req.LearnerAge != nil {
		ageNote = "age " + strconv.Itoa(*req.LearnerAge)
		ageShort = "age " + strconv.Itoa(*req.LearnerAge)
	}

	var parts []string
	parts = append(parts, b.store.SafetyInstructions(), "")

	parts = append(parts,
		"SCENARIO REFINEMENT REQUEST: Improve and enhance the existing scenario based on user feedback while preserving the core story elements.",
		"",
		"REFINEMENT OBJECTIVE: Take the existing scenario and enhance it by addressing the user's specific feedback while maintaining the same character, setting, and basic storyline structure.",
		"",
		"ORIGINAL SCENARIO TO REFINE:",
		req.PreviousScenario,
		"",
		"USER FEEDBACK FOR IMPROVEMENT:",
		"What they liked: "+orDefault(liked, "No specific feedback provided"),
		"What they want enhanced/added: "+orDefault(disliked, "No specific changes requested"),
		"")

	parts = append(parts,
		"MANDATORY PRESERVATION REQUIREMENTS:",
		fmt.Sprintf("- Keep the same character: %s (%s)", orDefault(character, "the original character"), ageNote),
		"- Maintain the same setting: "+orDefault(setting, "the same educational environment"),
		"- Preserve the core storyline structure and basic plot",
		"- Keep the same time period: "+ref.year,
		"- Maintain the regional context: "+region,
		"")

	parts = append(parts, refinementInstructions, "")

	if req.Mode == scenario.ResearchBased {
		parts = append(parts,
			fmt.Sprintf("REGIONAL CONTEXT (Youth Foresight Fellows research for %s):", region),
			"- Theme: "+ref.region.Theme,
			"- Challenges: "+ref.region.CurrentChallenges,
			"- Vision: "+ref.region.PreferredFuture,
			"- Focus: "+ref.region.ScanHit,
			"",
			"Use this research context to inform your enhancements while keeping the same basic story.",
			"")
	} else {
		parts = append(parts,
			fmt.Sprintf("REGIONAL CONTEXT FOR %s:", region),
			fmt.Sprintf("Use your knowledge of %s's educational, cultural, and socioeconomic context to enhance the scenario authentically while maintaining the same basic story structure.", region),
			"")
	}

	parts = append(parts,
		"ENHANCEMENT OPPORTUNITIES:",
		"Based on the user feedback, consider incorporating these relevant educational innovations to address their concerns:",
		"",
		bullets(innovations),
		"",
		enhancementGuidelines,
		"")

	parts = append(parts,
		"REFINED SCENARIO REQUIREMENTS:",
		fmt.Sprintf("- Same character (%s) at %s", orDefault(character, "original character"), ageShort),
		fmt.Sprintf("- Same setting (%s)", orDefault(setting, "original setting")),
		"- Enhanced based on feedback: "+quoted(orDefault(disliked, "general improvements")),
		"- Preserve what they liked: "+quoted(orDefault(liked, "existing elements")),
		"- 250-300 words with richer detail and better alignment with user preferences",
		"- Maintain regional authenticity for "+region,
		"",
		"Create a refined and improved version of the SAME scenario that addresses the user's feedback while preserving the core story elements they already have.")

	return strings.Join(parts, "\n"), nil
}

// refinementInnovations picks catalog entries that speak to the disliked
// feedback, or the head of the catalog when no focus keyword is present.
func (b *Builder) refinementInnovations(disliked string) []string {
	catalog := b.store.Innovations()
	lower := strings.ToLower(disliked)

	var selected []string
	if containsAny(lower, feedbackTriggers) {
		for _, item := range catalog {
			if containsAny(strings.ToLower(item), focusKeywords) {
				selected = append(selected, item)
			}
		}
	} else if len(catalog) > 30 {
		selected = catalog[:30]
	} else {
		selected = catalog
	}

	if len(selected) > maxRefinementInnovations {
		selected = selected[:maxRefinementInnovations]
	}
	return selected
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

const refinementInstructions = `REFINEMENT INSTRUCTIONS:
1. ENHANCE, don't replace: Build upon the existing scenario rather than creating something new
2. ADDRESS FEEDBACK: Specifically add or improve the elements the user requested
3. PRESERVE CORE: Keep the character name, setting, and main story beats
4. EXPAND DETAILS: Add more depth, dialogue, and specific examples where needed
5. MAINTAIN AUTHENTICITY: Keep the regional and cultural context consistent`

const enhancementGuidelines = `SPECIFIC ENHANCEMENT GUIDELINES:
- If user wants more "STIRDEEPER representation": Add more Social, Political, Environmental, or Economic dimensions
- If user wants more dialogue: Add conversations between characters
- If user wants more detail: Expand on the educational innovations and how they work
- If user wants more emotion: Add character feelings, reactions, and personal growth moments
- If user wants different focus: Shift emphasis while keeping the same basic story`

// quoted wraps s in plain double quotes, leaving its contents as written.
func quoted(s string) string {
	return "\"" + s + "\""
}
