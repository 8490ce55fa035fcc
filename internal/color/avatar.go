// Package color assigns deterministic display colors to users and groups.
package color

import "hash/fnv"

// palette holds the avatar colors clients render against both light and
// dark backgrounds. Order matters: changing it reshuffles every user.
var palette = []string{
	"#D96C5F", // clay
	"#D9995F", // ochre
	"#C2B35A", // moss
	"#7FAE6B", // fern
	"#5FA8A0", // lagoon
	"#5F8FD9", // cornflower
	"#8A7BD9", // iris
	"#B56FC2", // orchid
	"#C25F8A", // rose
	"#8C8C8C", // slate
}

// ForUser returns the avatar color for a user. The same ID always maps
// to the same palette entry.
func ForUser(userID string) string {
	return pick(userID)
}

// ForGroup returns the badge color for a group.
func ForGroup(groupID string) string {
	return pick(groupID)
}

func pick(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}
