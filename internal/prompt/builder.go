// Package prompt assembles retrieval-augmented prompts for image-prompt
// generation. The builder merges retrieved passages and the user question
// into an instruction template under a fixed context budget.
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/osler-labs/medcanvas/internal/rag"
)

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrInvalidBudget = errors.New("context budget must be positive")
)

// Placeholders interpolated into the construction template.
const (
	ContextPlaceholder  = "{context}"
	QuestionPlaceholder = "{question}"
)

// emptyContextMarker keeps the template well-formed when retrieval returns
// nothing; generation proceeds with it rather than failing.
const emptyContextMarker = "(no reference material retrieved)"

// DefaultTemplate is the construction prompt sent to the LLM as the user
// message, alongside the caller's system instruction.
const DefaultTemplate = `Retrieved High-Yield Medical Context:
{context}

User Request:
{question}

Return a complete structured image generation prompt following the system instruction guidelines.`

// DefaultSystemInstruction guides the LLM that turns a user request into a
// structured illustration prompt.
const DefaultSystemInstruction = `You are an elite medical visual prompt architect specializing in high-end USMLE and board-review medical illustrations.

Your task is to transform the user's request into a realistic, natural, and highly detailed image-generation prompt suitable for professional medical illustration.

Guidelines:
- Maintain scientific accuracy at USMLE Step 1 / Step 2 CK level.
- Write in natural descriptive language (not robotic bullet rules).
- Create a visually vivid, clinically realistic scene.
- Ensure the illustration feels professional, modern, and publication-quality.
- Add missing high-yield pathophysiologic details when necessary.
- Remove redundant or irrelevant user input.
- Emphasize clarity of mechanism and clinical correlation.`

// ExtractionInstruction asks the LLM to distill a user question into a
// short retrieval query before embedding.
const ExtractionInstruction = `Extract:
1. Primary medical condition
2. Mechanism keywords
3. Clinical keywords

Return short structured text only.`

// Builder produces final prompts from a question and retrieved context.
// It is deterministic given identical inputs and retrieval results, and the
// assembled context never exceeds the configured budget.
type Builder struct {
	template        string
	maxContextChars int
}

// NewBuilder creates a Builder. An empty template selects DefaultTemplate.
func NewBuilder(template string, maxContextChars int) (*Builder, error) {
	if maxContextChars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, maxContextChars)
	}
	if template == "" {
		template = DefaultTemplate
	}
	return &Builder{
		template:        template,
		maxContextChars: maxContextChars,
	}, nil
}

// Build assembles the final prompt: passages in descending score order,
// truncated at a passage boundary once the budget would be exceeded, then
// interpolated into the template with the original question.
//
// Zero chunks is an explicit, documented degradation: the template is
// rendered with an empty-context marker and no error is returned.
func (b *Builder) Build(question string, chunks []rag.ContextChunk) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	context := b.assembleContext(chunks)
	if context == "" {
		context = emptyContextMarker
	}

	out := strings.ReplaceAll(b.template, ContextPlaceholder, context)
	out = strings.ReplaceAll(out, QuestionPlaceholder, question)
	return out, nil
}

// assembleContext concatenates passage texts separated by blank lines,
// highest score first. Ties are broken by ascending ingestion sequence.
// A passage that would push the block past the budget is dropped whole;
// passages are never cut mid-text.
func (b *Builder) assembleContext(chunks []rag.ContextChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	sorted := make([]rag.ContextChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	var sb strings.Builder
	used := 0
	for _, chunk := range sorted {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}

		cost := len([]rune(text))
		if used > 0 {
			cost += 2 // separator
		}
		if used+cost > b.maxContextChars {
			break
		}

		if used > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
		used += cost
	}

	return sb.String()
}
