// zemon/services/assistant/classifier.go
package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"zemon/zemon/services/llm"
	"zemon/zemon/utils/logging"
)

// Classifier decides whether a message needs web results.
type Classifier struct {
	LLM    llm.Client
	Model  string
	Prompt string // one %s for the message
}

// NeedsSearch never fails: any model error counts as "no".
func (c *Classifier) NeedsSearch(ctx context.Context, message string) bool {
	defer logging.LogDuration(ctx, "Classifier.NeedsSearch")()

	reply, err := c.LLM.Run(ctx, llm.PromptRequest(c.Model, fmt.Sprintf(c.Prompt, message)))
	if err != nil {
		logging.ErrorLogger.Error("search classification failed", zap.Error(err))
		return false
	}
	return strings.Contains(strings.ToLower(reply), "yes")
}
