package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/helix-kb/helix/internal/domain"
)

const answerPromptTemplate = `You are a helpful AI assistant with access to a personal knowledge base.
Use the following context to answer the user's question. If the context doesn't
contain relevant information, say so and provide a general response.

Context:
%s

Question: %s

Answer:`

const inventoryPromptTemplate = `You are a helpful AI assistant with access to a personal knowledge base.
The user wants an overview of everything stored in their knowledge base.
The knowledge base contains %d sources, listed newest first:

%s

You MUST reference ALL %d sources listed above in your answer. Group related
sources together, but do not omit any of them.

Additional context from the knowledge base:
%s

Question: %s

Answer:`

const emptyKnowledgeBasePromptTemplate = `You are a helpful AI assistant with access to a personal knowledge base.
The knowledge base is currently empty: it contains no completed sources. Tell
the user their knowledge base is empty and suggest adding documents or
websites before asking about its contents. Do not invent any sources.

Question: %s

Answer:`

// BuildPrompt assembles the single bounded prompt sent to the model. An
// inventory retrieval with no completed sources gets the dedicated
// empty-knowledge-base template; it never falls through to the standard one.
func BuildPrompt(query string, ret *Retrieval) string {
	if ret.IsInventory {
		if len(ret.Inventory) == 0 {
			return fmt.Sprintf(emptyKnowledgeBasePromptTemplate, query)
		}
		return fmt.Sprintf(inventoryPromptTemplate,
			len(ret.Inventory),
			formatInventory(ret.Inventory),
			len(ret.Inventory),
			formatContext(ret.Results),
			query,
		)
	}
	return fmt.Sprintf(answerPromptTemplate, formatContext(ret.Results), query)
}

func formatContext(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return "(no relevant context found)"
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		source := r.Meta.URL
		if source == "" {
			source = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("Source: %s\n%s", source, r.Content))
	}
	return strings.Join(parts, "\n\n")
}

func formatInventory(items []InventoryItem) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s (%s) - %s", i+1, item.Title, item.Kind, item.URL))
	}
	return strings.Join(lines, "\n")
}

// Models that expose their reasoning wrap it in these tags; both the tags
// and their content are removed from user-visible answers.
var (
	reasoningBlockRe = regexp.MustCompile(`(?is)<(think|thinking|reasoning|reflection)>.*?</\s*(think|thinking|reasoning|reflection)\s*>`)
	strayTagRe       = regexp.MustCompile(`(?i)</?\s*(think|thinking|reasoning|reflection)\b[^>]*>`)
	newlineRunRe     = regexp.MustCompile(`\n{3,}`)
)

// SanitizeResponse strips reasoning tags (with their content), removes any
// unmatched tag residue and collapses runs of three or more newlines.
func SanitizeResponse(s string) string {
	s = reasoningBlockRe.ReplaceAllString(s, "")
	s = strayTagRe.ReplaceAllString(s, "")
	s = newlineRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

const maxCitations = 3

// Citations surfaces the top semantic results as ranked source references.
// The inventory digest is never cited.
func Citations(results []domain.RetrievalResult) []domain.Citation {
	top := results
	if len(top) > maxCitations {
		top = top[:maxCitations]
	}
	citations := make([]domain.Citation, 0, len(top))
	for _, r := range top {
		citations = append(citations, domain.Citation{
			URL:       r.Meta.URL,
			Title:     r.Meta.Title,
			Relevance: r.Relevance(),
		})
	}
	return citations
}
