package store

import (
	"fmt"

	"github.com/knotspotapp/knotspot-server/internal/domain"
)

// Path is a fully-qualified document path inside the store, e.g.
// "users/user-1/spots/spot-1" or "public/groups/grp-1/knots/knot-1".
// Paths double as Badger keys under the doc: keyspace.
type Path string

const docKeyspace = "doc:"

func (p Path) key() []byte {
	return []byte(docKeyspace + string(p))
}

// scopeRoot maps a scope to its path root.
func scopeRoot(scope domain.Scope) string {
	switch scope.Kind {
	case domain.ScopeOwner:
		return "users/" + scope.OwnerID
	case domain.ScopeGroup:
		return "public/groups/" + scope.GroupID
	default:
		return "public"
	}
}

// SpotPath returns the path of a Spot copy in the given scope.
func SpotPath(scope domain.Scope, id string) Path {
	return Path(scopeRoot(scope) + "/spots/" + id)
}

// SpotsPrefix returns the query prefix for all Spots in a scope.
func SpotsPrefix(scope domain.Scope) Path {
	return Path(scopeRoot(scope) + "/spots/")
}

// KnotPath returns the path of a Knot copy in the given scope.
func KnotPath(scope domain.Scope, id string) Path {
	return Path(scopeRoot(scope) + "/knots/" + id)
}

// KnotsPrefix returns the query prefix for all Knots in a scope.
func KnotsPrefix(scope domain.Scope) Path {
	return Path(scopeRoot(scope) + "/knots/")
}

// GroupPath returns the path of a Group document. Group docs sit directly
// under the groups collection; a group's scoped content lives one level
// deeper, under public/groups/{id}/spots and .../knots.
func GroupPath(id string) Path {
	return Path("public/groups/" + id)
}

// GroupsPrefix returns the query prefix for all Group documents. The query
// skip rule keeps group-scoped content out of the result.
func GroupsPrefix() Path {
	return Path("public/groups/")
}

// ProfilePath returns the path of a user's profile document.
func ProfilePath(userID string) Path {
	return Path("users/" + userID + "/profile")
}

// NotificationPath returns the path of a notification in the recipient's
// notification scope.
func NotificationPath(recipientID, id string) Path {
	return Path("users/" + recipientID + "/notifications/" + id)
}

// NotificationsPrefix returns the query prefix for a user's notifications.
func NotificationsPrefix(recipientID string) Path {
	return Path("users/" + recipientID + "/notifications/")
}

// CommentPath returns the path of a comment in a Spot's comment sub-scope.
// Comments hang off the spot id, not off any one scope copy, so they survive
// placement moves untouched.
func CommentPath(spotID, id string) Path {
	return Path("spots/" + spotID + "/comments/" + id)
}

// CommentsPrefix returns the query prefix for a Spot's comments.
func CommentsPrefix(spotID string) Path {
	return Path("spots/" + spotID + "/comments/")
}

// UserPath returns the path of an account document.
func UserPath(id string) Path {
	return Path("accounts/" + id)
}

// User lookup indexes live outside the doc: keyspace so prefix queries over
// documents never see them.
func userIndexKey(field, value string) []byte {
	return fmt.Appendf(nil, "idx:user:%s:%s", field, value)
}
