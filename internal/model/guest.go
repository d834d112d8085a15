package model

// Guest is a person on the guest list.  CustomFields carries the
// user-defined columns configured in the guest list wizard step.
type Guest struct {
	ID             string            `json:"id"`
	ChartID        string            `json:"chart_id"`
	FullName       string            `json:"full_name"`
	Relationship   string            `json:"relationship,omitempty"`
	MealPreference string            `json:"meal_preference,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CustomFields   map[string]string `json:"custom_fields,omitempty"`
	GroupIDs       []string          `json:"group_ids,omitempty"`
}

// GroupType classifies a guest group.
type GroupType string

const (
	GroupCouple   GroupType = "couple"
	GroupFamily   GroupType = "family"
	GroupExtended GroupType = "extended"
	GroupFriends  GroupType = "friends"
	GroupOther    GroupType = "other"
)

// ParseGroupType returns the matching GroupType or GroupOther.
func ParseGroupType(s string) GroupType {
	switch t := GroupType(s); t {
	case GroupCouple, GroupFamily, GroupExtended, GroupFriends:
		return t
	}
	return GroupOther
}

// GuestGroup bundles guests that should sit near each other.  Color is
// derived from the ID and never stored.
type GuestGroup struct {
	ID        string    `json:"id"`
	ChartID   string    `json:"chart_id"`
	Name      string    `json:"name"`
	Type      GroupType `json:"type"`
	MemberIDs []string  `json:"member_ids"`
	Color     string    `json:"color"`
}
