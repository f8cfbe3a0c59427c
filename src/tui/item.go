package tui

import "docsift/src/contracts"

// Item wraps a parsed Issue and implements bubbles/list.Item.
type Item struct {
	Issue contracts.Issue
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Issue.Message }

// Title returns the primary text for the item.
func (i Item) Title() string { return i.Issue.Message }

// Description returns the secondary text for the item.
func (i Item) Description() string { return i.Issue.File }
