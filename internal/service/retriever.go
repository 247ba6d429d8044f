package service

import (
	"context"
	"strings"

	"github.com/helix-kb/helix/internal/domain"
)

// Intent classifies what a query is asking for.
type Intent string

const (
	// IntentQuestion is a regular question answered from retrieved context.
	IntentQuestion Intent = "question"
	// IntentInventory asks for an overview of everything in the knowledge base.
	IntentInventory Intent = "inventory"
)

// Classifier decides the intent of a query. Implementations must be
// deterministic for a given input.
type Classifier interface {
	Classify(query string) Intent
}

// defaultInventoryKeywords marks queries that ask what the knowledge base
// contains. A substring match on the lower-cased query; a heuristic, not a
// guarantee.
var defaultInventoryKeywords = []string{
	"list",
	"sources",
	"documents",
	"what do you know",
	"knowledge base",
	"everything you have",
}

// KeywordClassifier classifies queries by keyword matching.
type KeywordClassifier struct {
	keywords []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: defaultInventoryKeywords}
}

func NewKeywordClassifierWithKeywords(keywords []string) *KeywordClassifier {
	return &KeywordClassifier{keywords: keywords}
}

func (c *KeywordClassifier) Classify(query string) Intent {
	lower := strings.ToLower(query)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return IntentInventory
		}
	}
	return IntentQuestion
}

// SourceLister lists catalog entries, newest first.
type SourceLister interface {
	List(ctx context.Context, status domain.SourceStatus, limit int) ([]*domain.Source, error)
}

// InventoryItem is one line of the catalog digest rendered for the prompt
// builder on inventory queries.
type InventoryItem struct {
	Title string
	Kind  string
	URL   string
}

// Retrieval is the outcome of a retrieve call. Inventory is populated only
// for inventory queries and may be empty when the catalog has no completed
// sources. The digest outranks every semantic result: the prompt builder
// treats it as distance-zero context.
type Retrieval struct {
	Results     []domain.RetrievalResult
	Inventory   []InventoryItem
	IsInventory bool
}

// Retriever runs semantic searches and classifies query intent.
type Retriever struct {
	index      *EmbeddingIndex
	catalog    SourceLister
	classifier Classifier
}

func NewRetriever(index *EmbeddingIndex, catalog SourceLister) *Retriever {
	return NewRetrieverWithClassifier(index, catalog, NewKeywordClassifier())
}

func NewRetrieverWithClassifier(index *EmbeddingIndex, catalog SourceLister, classifier Classifier) *Retriever {
	return &Retriever{
		index:      index,
		catalog:    catalog,
		classifier: classifier,
	}
}

// Retrieve runs the semantic search for the top k chunks. The search runs
// for every query so inventory answers still carry citations; inventory
// queries additionally get the completed-sources digest.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (*Retrieval, error) {
	results, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	ret := &Retrieval{Results: results}
	if r.classifier.Classify(query) != IntentInventory {
		return ret, nil
	}

	ret.IsInventory = true
	sources, err := r.catalog.List(ctx, domain.SourceStatusCompleted, 0)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to load source catalog", err)
	}

	ret.Inventory = make([]InventoryItem, 0, len(sources))
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = "Untitled"
		}
		ret.Inventory = append(ret.Inventory, InventoryItem{
			Title: title,
			Kind:  src.Kind(),
			URL:   src.URL,
		})
	}

	return ret, nil
}
