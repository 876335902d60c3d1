// Package domain contains core business entities and rules.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// RemoteIDPrefix distinguishes ids assigned to remote-sourced quotes from
// locally generated ids, so the two namespaces can never collide.
const RemoteIDPrefix = "server-"

// Quote is the single entity of this system.
// It is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is unique within the collection. Local quotes carry a generated
	// UUID; remote-sourced quotes carry a RemoteIDPrefix-derived id.
	ID string `json:"id"`

	// Text is the quote body. Never empty for a valid quote.
	Text string `json:"text"`

	// Category is a free-form label. Never empty for a valid quote.
	Category string `json:"category"`

	// Synced reports whether this quote matches (or originated from) the
	// remote source. Locally created quotes start unsynced.
	Synced bool `json:"synced"`
}

// NewQuote creates a local quote with a fresh unique id.
// Local quotes start unsynced until a sync cycle confirms them.
func NewQuote(text, category string) (*Quote, error) {
	q := &Quote{
		ID:       uuid.New().String(),
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
		Synced:   false,
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}

// Validate checks the required-field invariants.
func (q *Quote) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "cannot be empty")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "cannot be empty")
	}

	return nil
}

// IsRemote reports whether the quote was materialized from the remote source.
func (q *Quote) IsRemote() bool {
	return strings.HasPrefix(q.ID, RemoteIDPrefix)
}

// CloneAll returns an independent copy of a collection.
// Mutation paths copy before they write so a reconcile in flight never
// observes a half-updated slice.
func CloneAll(quotes []Quote) []Quote {
	if quotes == nil {
		return nil
	}

	out := make([]Quote, len(quotes))
	copy(out, quotes)

	return out
}

// Categories returns the distinct categories of a collection in
// first-seen order.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for i := range quotes {
		c := quotes[i].Category
		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		out = append(out, c)
	}

	return out
}

// FilterByCategory returns the quotes matching the given category,
// preserving insertion order. An empty category matches everything.
func FilterByCategory(quotes []Quote, category string) []Quote {
	if category == "" {
		return CloneAll(quotes)
	}

	out := make([]Quote, 0, len(quotes))

	for i := range quotes {
		if quotes[i].Category == category {
			out = append(out, quotes[i])
		}
	}

	return out
}
