package models

// Group represents a set of users who share expenses.
// Expenses with a GroupID belong to the group; balances can be scoped to it.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon trip").
	Name string

	// Currency is the default currency suggested for new group expenses.
	// Expenses may still use any currency.
	Currency string

	// CreatedBy is the user ID of the group creator.
	CreatedBy int64

	// Members is the list of users in this group.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Deleted marks a logically deleted group.
	Deleted bool
}

// Member is one user's membership in a group.
type Member struct {
	UserID      int64
	DisplayName string
	JoinedAt    int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the user IDs of all members.
func (g *Group) MemberIDs() []int64 {
	ids := make([]int64, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}
