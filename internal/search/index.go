// Package search maintains a BM25 full-text index over archived
// investigations. The index is in-memory and rebuilt from history on boot.
package search

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"probedeck/internal/model"
)

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// indexDoc is the flattened shape handed to bleve. Chat content is joined
// so transcripts are searchable alongside names and descriptions.
type indexDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Agents      string `json:"agents"`
	Chat        string `json:"chat"`
}

// Index wraps a mem-only bleve index over archived investigations.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
	names map[string]string
}

// New builds an empty index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{bleve: idx, names: make(map[string]string)}, nil
}

// IndexInvestigation adds or replaces an archived investigation.
func (ix *Index) IndexInvestigation(inv *model.Investigation) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var chat strings.Builder
	for _, m := range inv.ChatMessages {
		chat.WriteString(m.Content)
		chat.WriteByte('\n')
	}
	doc := indexDoc{
		Name:        inv.Name,
		Description: inv.Description,
		Agents:      strings.Join(inv.Agents, " "),
		Chat:        chat.String(),
	}
	if err := ix.bleve.Index(inv.ID, doc); err != nil {
		return err
	}
	ix.names[inv.ID] = inv.Name
	return nil
}

// Remove drops an investigation from the index; unknown ids are a no-op.
func (ix *Index) Remove(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.names, id)
	return ix.bleve.Delete(id)
}

// Rebuild replaces the whole index with the given history.
func (ix *Index) Rebuild(history []model.Investigation) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.bleve = idx
	ix.names = make(map[string]string, len(history))
	ix.mu.Unlock()
	for i := range history {
		if err := ix.IndexInvestigation(&history[i]); err != nil {
			return err
		}
	}
	return nil
}

// Search runs a BM25 query-string search and returns the top k hits.
func (ix *Index) Search(q string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := ix.bleve.Search(req)
	if err != nil {
		return nil, err
	}
	var out []Hit
	for i, hit := range res.Hits {
		out = append(out, Hit{
			ID:    hit.ID,
			Name:  ix.names[hit.ID],
			Score: hit.Score,
			Rank:  i + 1,
		})
	}
	return out, nil
}
