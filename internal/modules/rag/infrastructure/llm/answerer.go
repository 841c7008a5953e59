package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const answerSystemPrompt = "You answer study questions using only the provided notes. " +
	"If the notes do not contain the answer, say so instead of guessing."

// Answerer is the generative answering collaborator: (context, question)
// in, answer text out.
type Answerer struct {
	cm   model.BaseChatModel
	meta ChatModelMeta
}

func NewAnswerer(cm model.BaseChatModel, meta ChatModelMeta) (*Answerer, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	return &Answerer{cm: cm, meta: meta}, nil
}

func (a *Answerer) Meta() ChatModelMeta {
	return a.meta
}

// Answer forwards the retrieved context and the question to the chat
// model in a single turn.
func (a *Answerer) Answer(ctx context.Context, contextText, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("empty question")
	}
	msgs := []*schema.Message{
		{Role: schema.System, Content: answerSystemPrompt},
		{Role: schema.User, Content: fmt.Sprintf("Notes:\n%s\n\nQuestion: %s", contextText, question)},
	}
	out, err := a.cm.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("chat model returned nil message")
	}
	return strings.TrimSpace(out.Content), nil
}
