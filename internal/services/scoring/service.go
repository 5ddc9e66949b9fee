package scoring

import (
	"strings"

	"github.com/dottenv/dating-bot/internal/domain/model"
	"github.com/dottenv/dating-bot/internal/domain/rules"
)

// Weighted additive compatibility model. Two hard gates
// (gender/orientation, dating goal below relaxation level 3) and four
// soft factors whose contributions never shrink as relaxation grows.
const (
	weightSharedGoal   = 0.30
	weightRelaxedGoal  = 0.10
	weightAgeBest      = 0.25
	weightAgeGood      = 0.20
	weightAgeFair      = 0.15
	weightAgeWide      = 0.10
	weightAgeWidest    = 0.05
	weightAgeAny       = 0.02
	weightSameCity     = 0.20
	weightCrossCity    = 0.05
	weightInterests    = 0.15
	weightPersonality  = 0.10
	highValueTagBonus  = 0.10
	goalGateRelaxLevel = 3
	crossCityRelax     = 2
	maxReasons         = 3
)

// highValueTags are interest categories that earn an extra overlap bonus.
var highValueTags = map[string]bool{
	"sport":   true,
	"music":   true,
	"movies":  true,
	"travel":  true,
	"books":   true,
	"art":     true,
	"science": true,
}

var positiveToneWords = []string{"kind", "cheerful", "active", "positive", "open", "friendly"}

var negativeToneWords = []string{"sad", "reserved", "serious", "introvert"}

type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes a compatibility value in [0, 1] plus up to three
// human-readable reasons. Reasons are explanation only and carry no
// control-flow meaning. The value is monotone non-decreasing in
// relaxation for every soft factor; the gender/orientation gate holds
// at every relaxation level.
func (s *Scorer) Score(a, b model.Profile, relaxation int) (float64, []string) {
	if !rules.GenderOrientationCompatible(traitsOf(a), traitsOf(b)) {
		return 0, nil
	}

	score := 0.0
	reasons := make([]string, 0, maxReasons+2)

	goalCompatible := rules.DatingGoalCompatible(a.Goal, b.Goal)
	if !goalCompatible && relaxation < goalGateRelaxLevel {
		return 0, nil
	}
	if goalCompatible {
		score += weightSharedGoal
		reasons = append(reasons, "matching goals")
	} else {
		score += weightRelaxedGoal
		reasons = append(reasons, "goals partially aligned")
	}

	if contribution, reason := ageContribution(a.Age, b.Age, relaxation); contribution > 0 {
		score += contribution
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// a blank city matches a blank city; the reason is shown only for a
	// known city
	city := strings.TrimSpace(a.City)
	if strings.EqualFold(city, strings.TrimSpace(b.City)) {
		score += weightSameCity
		if city != "" {
			reasons = append(reasons, "same city")
		}
	} else if relaxation >= crossCityRelax {
		score += weightCrossCity
	}

	interestScore := interestOverlap(a.Tags, b.Tags)
	score += interestScore * weightInterests
	if interestScore > 0.5 {
		reasons = append(reasons, "many shared interests")
	} else if interestScore > 0.2 {
		reasons = append(reasons, "shared interests")
	}

	toneScore := toneAlignment(a.Bio, b.Bio)
	score += toneScore * weightPersonality
	if toneScore > 0.6 {
		reasons = append(reasons, "similar vibe")
	}

	if score > 1.0 {
		score = 1.0
	}
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}

	return score, reasons
}

func traitsOf(p model.Profile) rules.ProfileTraits {
	return rules.ProfileTraits{
		Gender:      p.Gender,
		Orientation: p.Orientation,
		Goal:        p.Goal,
	}
}

// ageContribution widens the accepted age gap step by step as relaxation
// grows; at the maximum level any age difference earns a token credit.
func ageContribution(ageA, ageB, relaxation int) (float64, string) {
	if ageA <= 0 || ageB <= 0 {
		return 0, ""
	}

	diff := ageA - ageB
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff <= 3:
		return weightAgeBest, "close in age"
	case diff <= 7:
		return weightAgeGood, "close in age"
	case diff <= 12:
		return weightAgeFair, ""
	case relaxation >= 1 && diff <= 15:
		return weightAgeWide, ""
	case relaxation >= 2 && diff <= 20:
		return weightAgeWidest, ""
	case relaxation >= 4:
		return weightAgeAny, ""
	default:
		return 0, ""
	}
}

// interestOverlap is a Jaccard-style tag overlap in [0, 1] with a bonus
// for overlap inside the high-value categories.
func interestOverlap(tagsA, tagsB []string) float64 {
	setA := normalizeTags(tagsA)
	setB := normalizeTags(tagsB)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	common := 0
	bonus := 0.0
	union := len(setB)
	for tag := range setA {
		if setB[tag] {
			common++
			if highValueTags[tag] {
				bonus += highValueTagBonus
			}
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}

	value := float64(common)/float64(union) + bonus
	if value > 1.0 {
		value = 1.0
	}
	return value
}

func normalizeTags(tags []string) map[string]bool {
	out := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out[tag] = true
		}
	}
	return out
}

// toneAlignment is a best-effort keyword polarity comparison of the two
// bios. Never a hard gate: missing text earns a neutral value.
func toneAlignment(bioA, bioB string) float64 {
	if strings.TrimSpace(bioA) == "" || strings.TrimSpace(bioB) == "" {
		return 0.3
	}

	positiveA, negativeA := countTones(bioA)
	positiveB, negativeB := countTones(bioB)

	sameUpbeat := positiveA > negativeA && positiveB > negativeB
	sameReserved := negativeA >= positiveA && negativeB >= positiveB
	if sameUpbeat || sameReserved {
		return 0.7
	}
	return 0.4
}

func countTones(bio string) (positive, negative int) {
	lower := strings.ToLower(bio)
	for _, word := range positiveToneWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	for _, word := range negativeToneWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}
	return positive, negative
}
