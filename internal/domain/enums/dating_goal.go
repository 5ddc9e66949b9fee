package enums

type DatingGoal string

const (
	GoalSerious    DatingGoal = "serious"
	GoalFriendship DatingGoal = "friendship"
	GoalCasual     DatingGoal = "casual"
)

// OpenGoal reports whether the goal makes gender/orientation irrelevant
// for pairing (the user is not looking for a romantic partner).
func (g DatingGoal) OpenGoal() bool {
	return g == GoalFriendship || g == GoalCasual
}
