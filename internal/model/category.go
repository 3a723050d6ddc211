package model

import "strings"

// Category labels the mailbox tab a message was fetched from.
// The set of usable categories comes from configuration.
type Category string

// Built-in categories, matching the Gmail tab names.
const (
	CategoryInbox      Category = "Inbox"
	CategoryPromotions Category = "Promotions"
	CategorySocial     Category = "Social"
	CategoryUpdates    Category = "Updates"
	CategoryForums     Category = "Forums"
)

// DefaultCategories is the category set used when the configuration
// does not define one.
var DefaultCategories = []Category{
	CategoryInbox,
	CategoryPromotions,
	CategorySocial,
	CategoryUpdates,
	CategoryForums,
}

// OrDefault returns c, or CategoryInbox when c is empty.
func (c Category) OrDefault() Category {
	if strings.TrimSpace(string(c)) == "" {
		return CategoryInbox
	}
	return c
}

// ParseCategories splits a comma-separated list of category names,
// dropping blanks and duplicates while keeping the input order.
func ParseCategories(s string) []Category {
	var out []Category
	seen := make(map[Category]bool)
	for _, part := range strings.Split(s, ",") {
		c := Category(strings.TrimSpace(part))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// JoinCategories is the inverse of ParseCategories.
func JoinCategories(cs []Category) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}
