package comments

import "github.com/example/tubesocial/services/comments/internal/store"

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Authorize allows a mutation only when the requester authored the comment.
func Authorize(c store.Comment, requesterID string) Decision {
	if requesterID == "" || c.AuthorID == "" {
		return Deny
	}
	return Decision(canonical(c.AuthorID) == canonical(requesterID))
}

// canonical normalizes UUID spellings; anything else compares verbatim.
func canonical(id string) string {
	if c, ok := store.CanonicalID(id); ok {
		return c
	}
	return id
}
