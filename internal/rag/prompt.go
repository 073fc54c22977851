package rag

import (
	"fmt"
	"strings"

	"github.com/erarta/advocata-sub000/internal/config"
	"github.com/erarta/advocata-sub000/internal/data/repository"
	"github.com/erarta/advocata-sub000/internal/rag/llm"
)

// buildMessages assembles the provider conversation: system instruction,
// prior turns, then the user prompt with numbered context excerpts. The
// excerpt markers [1]..[n] follow retrieval rank so citations map back to
// references by position.
func buildMessages(q Question, matches []repository.ChunkMatch) []llm.Message {
	messages := make([]llm.Message, 0, len(q.History)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: config.QASystemInstruction,
	})
	messages = append(messages, q.History...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: userPrompt(q.Text, matches),
	})
	return messages
}

func userPrompt(question string, matches []repository.ChunkMatch) string {
	var b strings.Builder
	b.WriteString("Context excerpts from legal documents:\n\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] (document %s)\n%s\n\n", i+1, m.Chunk.DocumentId, m.Chunk.Content)
	}
	fmt.Fprintf(&b, "Question: %s", strings.TrimSpace(question))
	return b.String()
}
