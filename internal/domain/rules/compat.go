package rules

import "github.com/dottenv/dating-bot/internal/domain/enums"

// GenderOrientationCompatible is the hard pairing gate. It is symmetric:
// each side's orientation must admit the other side's gender. Users whose
// goal is friendship or casual talk bypass the gate entirely, and missing
// data counts as compatible, matching the questionnaire's optional fields.
func GenderOrientationCompatible(a, b ProfileTraits) bool {
	if a.Goal.OpenGoal() || b.Goal.OpenGoal() {
		return true
	}
	if a.Gender == "" || b.Gender == "" || a.Orientation == "" || b.Orientation == "" {
		return true
	}

	return admits(a, b.Gender) && admits(b, a.Gender)
}

// ProfileTraits is the slice of a profile the compatibility tables need.
type ProfileTraits struct {
	Gender      enums.Gender
	Orientation enums.Orientation
	Goal        enums.DatingGoal
}

func admits(p ProfileTraits, partner enums.Gender) bool {
	switch p.Orientation {
	case enums.OrientationHetero:
		return oppositeGender(p.Gender, partner)
	case enums.OrientationHomo:
		return p.Gender == partner
	case enums.OrientationBi, enums.OrientationOther:
		return true
	default:
		return true
	}
}

func oppositeGender(a, b enums.Gender) bool {
	switch {
	case a == enums.GenderMale && b == enums.GenderFemale:
		return true
	case a == enums.GenderFemale && b == enums.GenderMale:
		return true
	default:
		return false
	}
}

// goalPairs lists mutually compatible dating goals. Serious intent only
// pairs with serious intent; friendship and casual talk mix freely.
var goalPairs = map[enums.DatingGoal]map[enums.DatingGoal]bool{
	enums.GoalSerious: {
		enums.GoalSerious: true,
	},
	enums.GoalFriendship: {
		enums.GoalFriendship: true,
		enums.GoalCasual:     true,
	},
	enums.GoalCasual: {
		enums.GoalCasual:     true,
		enums.GoalFriendship: true,
	},
}

// DatingGoalCompatible reports whether two goals belong to a mutually
// compatible set. Unknown or empty goals count as compatible.
func DatingGoalCompatible(a, b enums.DatingGoal) bool {
	if a == "" || b == "" {
		return true
	}
	set, ok := goalPairs[a]
	if !ok {
		return true
	}
	return set[b]
}
