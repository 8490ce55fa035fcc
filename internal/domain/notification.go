package domain

// NotificationKind represents the action that produced a notification.
type NotificationKind string

const (
	// NotificationLike is created when someone likes a Spot.
	NotificationLike NotificationKind = "like"
	// NotificationComment is created when someone comments on a Spot.
	NotificationComment NotificationKind = "comment"
	// NotificationShare is created when someone shares a Spot.
	NotificationShare NotificationKind = "share"
	// NotificationGroupInvite is created when someone is added to a group.
	NotificationGroupInvite NotificationKind = "group_invite"
)

// Notification is an append-only record in the recipient's notification
// scope. Nothing but the Read flag is ever mutated after creation, and
// notification writes are best-effort: they ride after the primary batch and
// their failure never rolls it back.
type Notification struct {
	Syncable

	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	Kind        NotificationKind `json:"kind"`
	SpotID      string           `json:"spot_id,omitempty"`
	GroupID     string           `json:"group_id,omitempty"`
	Message     string           `json:"message,omitempty"`
	Read        bool             `json:"read"`
}

// Comment is a single comment in a Spot's comment sub-scope. The Spot's
// CommentCount increment is bundled into the same atomic batch as the
// comment append, which is what keeps the count honest without locks.
type Comment struct {
	Syncable

	SpotID   string `json:"spot_id"`
	AuthorID string `json:"author_id"`
	Body     string `json:"body"`
}
