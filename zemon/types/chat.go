// zemon/types/chat.go
package types

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// MessageKind tags how an assistant message was produced, so renderers can
// switch on data instead of matching markers inside Content.
type MessageKind string

const (
	KindPlain           MessageKind = "plain"
	KindSearchAugmented MessageKind = "search_augmented"
	KindSearchFailed    MessageKind = "search_failed"
)

// SearchContext is the structured form of the research block embedded in Content.
type SearchContext struct {
	Summary []string       `json:"summary,omitempty" bson:"summary,omitempty"`
	Sources []SearchResult `json:"sources,omitempty" bson:"sources,omitempty"`
	Reason  string         `json:"reason,omitempty" bson:"reason,omitempty"`
}

type Message struct {
	Role     Role           `json:"role" bson:"role"`
	Content  string         `json:"content" bson:"content"`
	Complete bool           `json:"complete" bson:"complete"`
	Kind     MessageKind    `json:"kind,omitempty" bson:"kind,omitempty"`
	Search   *SearchContext `json:"search,omitempty" bson:"search,omitempty"`
}

type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Revision  int       `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TitleMaxRunes is how much of the first user message becomes the chat title.
const TitleMaxRunes = 40

// DeriveTitle truncates message to TitleMaxRunes runes, adding "..." when cut.
func DeriveTitle(message string) string {
	r := []rune(message)
	if len(r) <= TitleMaxRunes {
		return message
	}
	return string(r[:TitleMaxRunes]) + "..."
}
