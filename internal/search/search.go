// Package search maintains a full-text index of posts in Elasticsearch.
// Indexing is best-effort and decoupled from the transactional store.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"postboard/internal/models"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Index struct {
	es   *elasticsearch.Client
	name string
}

func New(cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: %s", res.Status())
	}

	name := cfg.Index
	if name == "" {
		name = "posts"
	}
	return &Index{es: client, name: name}, nil
}

type PostDoc struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      uint   `json:"user_id"`
	IsPublished bool   `json:"is_published"`
}

// IndexPost upserts the post document, keyed by post id.
func (ix *Index) IndexPost(ctx context.Context, p *models.Post) error {
	doc := PostDoc{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		UserID:      p.UserID,
		IsPublished: p.IsPublished,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := ix.es.Index(
		ix.name,
		bytes.NewReader(body),
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index post %d: %s", p.ID, res.Status())
	}
	return nil
}

func (ix *Index) DeletePost(ctx context.Context, id uint) error {
	res, err := ix.es.Delete(
		ix.name,
		strconv.FormatUint(uint64(id), 10),
		ix.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	// 404 means the post was never indexed; nothing to do.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete post %d: %s", id, res.Status())
	}
	return nil
}

// Search runs a fuzzy multi_match over title (boosted) and description.
func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []PostDoc, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.name),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source PostDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]PostDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

// Name reports the backing index, mostly for logs.
func (ix *Index) Name() string {
	if ix == nil {
		return ""
	}
	return strings.TrimSpace(ix.name)
}
