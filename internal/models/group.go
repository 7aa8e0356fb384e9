package models

import "slices"

// DefaultCurrency is used when a group is created without a currency.
const DefaultCurrency = "INR"

// Group represents a set of members who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Currency is the ISO 4217 code all group amounts are denominated in.
	// Every supported currency has two decimal places.
	Currency string

	// CreatedBy is the user ID of the group creator. The creator is always a member.
	CreatedBy string

	// Members is the list of members, unique by user ID.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is a user as seen from inside a group.
type Member struct {
	UserID string
	Name   string
	Email  string
}

// MemberIDs returns the user IDs of all members.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// HasMember reports whether userID is a member of the group.
func (g *Group) HasMember(userID string) bool {
	return slices.ContainsFunc(g.Members, func(m Member) bool {
		return m.UserID == userID
	})
}
