package services

import (
	"regexp"
	"strconv"
	"strings"
)

// SlotExtractor turns raw user text into typed candidate profile fields.
// Every method returns the zero value on no match and never fails.
// Implementations must be stateless and safe for concurrent use; new
// locales plug in as alternative implementations without touching the
// onboarding state machine.
type SlotExtractor interface {
	ExtractName(text string) string
	ExtractGender(text string) string
	ExtractAge(text string) int
	ExtractWeightHeight(text string) (weight, height float64)
	ExtractGoals(text string) []string
}

// RegexSlotExtractor is the default English/Hinglish extractor
type RegexSlotExtractor struct{}

// NewRegexSlotExtractor creates the default extractor
func NewRegexSlotExtractor() *RegexSlotExtractor {
	return &RegexSlotExtractor{}
}

var (
	// Bare greetings that must not be mistaken for names
	nameStopwords = map[string]bool{
		"hi": true, "hello": true, "hey": true, "yo": true, "hola": true, "hii": true,
	}

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:mera naam|my name is|i am|i'm|call me|it's|its|iam)\s+([A-Za-z][A-Za-z]+(?:\s+[A-Za-z][A-Za-z]+)*)`),
		regexp.MustCompile(`(?i)(?:naam hai)\s+([A-Za-z][A-Za-z]+(?:\s+[A-Za-z][A-Za-z]+)*)`),
	}

	bareNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^([A-Za-z][A-Za-z]+(?:\s+[A-Za-z][A-Za-z]+)?)$`),
		regexp.MustCompile(`(?i)^([A-Za-z]+)$`),
	}

	agePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,3})\s*(?:year|yr|saal|age)`),
		regexp.MustCompile(`(?i)(?:i am|i'm|age is|age hai)\s*(\d{1,3})`),
	}
	bareNumberPattern = regexp.MustCompile(`\b(\d{1,3})\b`)

	weightPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|kilo|kilogram)`)
	heightPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:cm|centimeter)`)
	numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

	otherGoalPattern = regexp.MustCompile(`(?i)\bother\b`)
	wordPattern      = regexp.MustCompile(`\b\w+\b`)
)

// goalMappings map keyword mentions to canonical goal tags. Order matters:
// when multiple goals match, the first three in this order are kept.
var goalMappings = []struct {
	goal     string
	keywords []string
}{
	{"weight loss", []string{"lose weight", "weight loss", "slim", "fat loss", "weight reduction"}},
	{"muscle gain", []string{"gain weight", "muscle", "bulk", "bodybuilding", "strength"}},
	{"diabetes management", []string{"diabetes", "sugar", "blood sugar", "hba1c"}},
	{"pcos management", []string{"pcos", "pcod", "periods", "hormonal"}},
	{"fitness", []string{"fitness", "gym", "workout", "active", "stamina"}},
	{"healthy diet", []string{"diet", "nutrition", "healthy food", "eating habits"}},
	{"stress management", []string{"stress", "anxiety", "mental health", "meditation"}},
	{"sleep improvement", []string{"sleep", "insomnia", "sleeping"}},
}

// Default and sentinel goal tags
const (
	GoalGeneralWellness = "general wellness"
	GoalOtherCustom     = "other_custom"
)

// ExtractName pulls a probable name out of the text. It tries explicit
// naming phrases first ("my name is X", "mera naam X"), then treats short
// all-alphabetic input as a bare name.
func (e *RegexSlotExtractor) ExtractName(text string) string {
	text = strings.TrimSpace(text)
	if nameStopwords[strings.ToLower(text)] {
		return ""
	}

	for _, pattern := range namePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return titleCase(strings.TrimSpace(m[1]))
		}
	}

	for _, pattern := range bareNamePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			name := titleCase(strings.TrimSpace(m[1]))
			if len(name) >= 2 && len(name) <= 50 {
				return name
			}
		}
	}

	// Short alphabetic input is probably just the name itself
	words := strings.Fields(text)
	if len(words) > 0 && len(words) <= 2 && allAlpha(words) {
		name := titleCase(text)
		if len(name) >= 2 && len(name) <= 50 {
			return name
		}
	}

	return ""
}

// ExtractGender looks for gender keyword mentions. Female synonyms are
// checked first because "female" and "woman" contain the male keywords
// as substrings.
func (e *RegexSlotExtractor) ExtractGender(text string) string {
	lower := strings.ToLower(text)

	for _, w := range []string{"female", "woman", "girl", "lady"} {
		if strings.Contains(lower, w) {
			return "female"
		}
	}
	for _, w := range []string{"male", "man", "boy", "guy"} {
		if strings.Contains(lower, w) {
			return "male"
		}
	}
	if strings.Contains(lower, "other") || strings.Contains(lower, "prefer not to say") {
		return "other"
	}
	return ""
}

// ExtractAge tries explicit age phrases first ("25 years", "age hai 25"),
// then any bare 1-3 digit number. Only values in [5,100] are accepted.
func (e *RegexSlotExtractor) ExtractAge(text string) int {
	for _, pattern := range agePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			age, err := strconv.Atoi(m[1])
			if err == nil && age >= 5 && age <= 100 {
				return age
			}
		}
	}

	for _, m := range bareNumberPattern.FindAllStringSubmatch(text, -1) {
		age, err := strconv.Atoi(m[1])
		if err == nil && age >= 5 && age <= 100 {
			return age
		}
	}

	return 0
}

// ExtractWeightHeight looks for explicit "N kg" and "N cm" mentions, then
// falls back to interpreting the first two bare numbers as a weight/height
// pair when their ranges fit. Either value can be 0 independently.
func (e *RegexSlotExtractor) ExtractWeightHeight(text string) (float64, float64) {
	var weight, height float64

	if m := weightPattern.FindStringSubmatch(text); m != nil {
		if val, err := strconv.ParseFloat(m[1], 64); err == nil && val >= 20 && val <= 300 {
			weight = val
		}
	}

	if m := heightPattern.FindStringSubmatch(text); m != nil {
		if val, err := strconv.ParseFloat(m[1], 64); err == nil && val >= 50 && val <= 250 {
			height = val
		}
	}

	if weight == 0 || height == 0 {
		nums := numberPattern.FindAllStringSubmatch(text, -1)
		if len(nums) >= 2 {
			n1, err1 := strconv.ParseFloat(nums[0][1], 64)
			n2, err2 := strconv.ParseFloat(nums[1][1], 64)
			if err1 == nil && err2 == nil && n1 >= 30 && n1 <= 200 && n2 >= 100 && n2 <= 250 {
				weight, height = n1, n2
			}
		}
	}

	return weight, height
}

// ExtractGoals maps keyword mentions to up to 3 canonical goal tags.
// A literal "other" short-circuits to the other_custom sentinel so the
// state machine can ask for a free-form goal. No match yields the
// general wellness default.
func (e *RegexSlotExtractor) ExtractGoals(text string) []string {
	lower := strings.ToLower(text)

	if otherGoalPattern.MatchString(lower) {
		return []string{GoalOtherCustom}
	}

	var goals []string
	for _, mapping := range goalMappings {
		for _, kw := range mapping.keywords {
			if strings.Contains(lower, kw) {
				goals = append(goals, mapping.goal)
				break
			}
		}
		if len(goals) == 3 {
			break
		}
	}

	if len(goals) == 0 {
		goals = append(goals, GoalGeneralWellness)
	}

	return goals
}

func allAlpha(words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
				return false
			}
		}
	}
	return true
}

// titleCase capitalizes the first letter of each whitespace-separated word
// and lowercases the rest, like Python's str.title for ASCII input.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
