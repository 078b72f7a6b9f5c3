package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// episodeNamespace scopes deterministic episode UUIDs so they cannot collide
// with identifiers minted by other systems.
var episodeNamespace = uuid.MustParse("7d2c9f4e-5a1b-4c8d-9e3f-2b6a8c0d4e1f")

// Episode is an immutable, named, timestamped batch of conversation turns
// submitted to the memory engine as the unit of persistence. GroupID
// partitions memory spaces (per tenant, per topic); retrieval never crosses
// group boundaries.
type Episode struct {
	Messages      []Message `json:"messages"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	GroupID       string    `json:"group_id"`
	ReferenceTime time.Time `json:"reference_time"`
}

// NewEpisode constructs a validated Episode. Messages must be non-empty and
// every turn must carry a valid role.
func NewEpisode(messages []Message, name, description, groupID string, referenceTime time.Time) (Episode, error) {
	if len(messages) == 0 {
		return Episode{}, fmt.Errorf("episode %q has no messages", name)
	}
	for i, m := range messages {
		if !m.Role.Valid() {
			return Episode{}, fmt.Errorf("episode %q message %d has unknown role %q", name, i, m.Role)
		}
	}
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return Episode{
		Messages:      copied,
		Name:          name,
		Description:   description,
		GroupID:       groupID,
		ReferenceTime: referenceTime,
	}, nil
}

// UUID derives a deterministic identifier from the episode content. A flush
// retried after a persistence failure resubmits an identical UUID, letting an
// idempotent engine collapse the duplicate instead of storing it twice.
func (e Episode) UUID() string {
	var b strings.Builder
	b.WriteString(e.GroupID)
	b.WriteByte('\n')
	b.WriteString(e.Name)
	for _, m := range e.Messages {
		b.WriteByte('\n')
		b.WriteString(string(m.Role))
		b.WriteByte(':')
		b.WriteString(m.Content)
	}
	return uuid.NewSHA1(episodeNamespace, []byte(b.String())).String()
}

// Body renders the turns as a single "role: content" transcript, the textual
// form engines ingest for entity extraction.
func (e Episode) Body() string {
	lines := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}
