package assistant

import (
	"fmt"
	"strings"
)

// Composer builds the final prompt. Instructions has one %s for the research block.
type Composer struct {
	Instructions string
}

func (c Composer) Compose(systemPrompt string, aug Augmentation, message string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	if !aug.Empty() {
		sb.WriteString(fmt.Sprintf(c.Instructions, aug.Text()))
		sb.WriteString("\n\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(message)
	sb.WriteString("\n\nAssistant:")
	return sb.String()
}
