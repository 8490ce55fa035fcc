package domain

// Reference integrity deltas. Each function mutates the in-memory entities
// as a matched pair and reports whether anything changed; the caller decides
// which scope copies receive the result in one atomic batch. All of these
// are idempotent under set semantics: applying a delta twice leaves the same
// state as applying it once.

// LinkSpotKnot adds the Spot↔Knot back-reference pair.
func LinkSpotKnot(spot *Spot, knot *Knot) (changed bool) {
	spotChanged := spot.AddKnot(knot.ID)
	knotChanged := knot.AddSpot(spot.ID)
	return spotChanged || knotChanged
}

// UnlinkSpotKnot removes the Spot↔Knot back-reference pair.
func UnlinkSpotKnot(spot *Spot, knot *Knot) (changed bool) {
	spotChanged := spot.RemoveKnot(knot.ID)
	knotChanged := knot.RemoveSpot(spot.ID)
	return spotChanged || knotChanged
}

// FollowDelta records follower following followee: follower.Following gains
// followee and followee.Followers gains follower, both or neither.
func FollowDelta(follower, followee *UserProfile) (changed bool) {
	a := follower.addFollowing(followee.ID)
	b := followee.addFollower(follower.ID)
	return a || b
}

// UnfollowDelta removes the matched follow pair.
func UnfollowDelta(follower, followee *UserProfile) (changed bool) {
	a := follower.removeFollowing(followee.ID)
	b := followee.removeFollower(follower.ID)
	return a || b
}

// RemoveTagDelta strips a profile-tag string from the Spot. Tags are
// denormalized strings rather than ids, so there is no profile-side
// back-reference to update; the asymmetry is intentional.
func RemoveTagDelta(spot *Spot, tag string) (changed bool) {
	return spot.RemoveTaggedUser(tag)
}
