package domain

import "slices"

// UserProfile is the public face of a user: identity strings plus the follow
// graph edges. Followers and Following are matched pairs across two profiles
// and are only ever updated together (see FollowDelta / UnfollowDelta).
// Stored separately from User to keep auth concerns out of social documents.
type UserProfile struct {
	Syncable

	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	ProfileTag  string `json:"profile_tag"`
	AvatarColor string `json:"avatar_color,omitempty"`

	FollowerIDs  []string `json:"follower_ids"`
	FollowingIDs []string `json:"following_ids"`
}

// NewUserProfile creates an empty profile for a user.
func NewUserProfile(userID, username, profileTag string) *UserProfile {
	p := &UserProfile{
		UserID:     userID,
		Username:   username,
		ProfileTag: profileTag,
	}
	p.ID = userID
	p.InitTimestamps()
	return p
}

// Follows checks if this profile follows the given user.
func (p *UserProfile) Follows(userID string) bool {
	return slices.Contains(p.FollowingIDs, userID)
}

// FollowedBy checks if this profile is followed by the given user.
func (p *UserProfile) FollowedBy(userID string) bool {
	return slices.Contains(p.FollowerIDs, userID)
}

func (p *UserProfile) addFollowing(userID string) bool {
	if slices.Contains(p.FollowingIDs, userID) {
		return false
	}
	p.FollowingIDs = append(p.FollowingIDs, userID)
	return true
}

func (p *UserProfile) removeFollowing(userID string) bool {
	for i, id := range p.FollowingIDs {
		if id == userID {
			p.FollowingIDs = append(p.FollowingIDs[:i], p.FollowingIDs[i+1:]...)
			return true
		}
	}
	return false
}

func (p *UserProfile) addFollower(userID string) bool {
	if slices.Contains(p.FollowerIDs, userID) {
		return false
	}
	p.FollowerIDs = append(p.FollowerIDs, userID)
	return true
}

func (p *UserProfile) removeFollower(userID string) bool {
	for i, id := range p.FollowerIDs {
		if id == userID {
			p.FollowerIDs = append(p.FollowerIDs[:i], p.FollowerIDs[i+1:]...)
			return true
		}
	}
	return false
}
