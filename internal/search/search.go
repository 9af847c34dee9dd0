package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/util"
)

var ErrUnavailable = errors.New("search is not configured")

type Document struct {
	ID          string   `json:"id"`
	Identifier  string   `json:"identifier"`
	ModelName   string   `json:"modelName"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

type Indexer interface {
	IndexModel(ctx context.Context, m *models.Model) error
	DeleteModel(ctx context.Context, id string) error
	SearchModels(ctx context.Context, query string, from, size int) (int64, []Document, error)
}

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ESIndexer struct {
	ES    *elasticsearch.Client
	Index string
}

func NewESIndexer(es *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{ES: es, Index: index}
}

func DocumentFromModel(m *models.Model) Document {
	fields := make([]string, 0, len(m.Fields)*2)
	for _, f := range m.Fields {
		fields = append(fields, f.Identifier, f.FieldName)
	}
	return Document{
		ID:          m.ID.String(),
		Identifier:  m.Identifier,
		ModelName:   m.ModelName,
		Description: m.Description,
		Fields:      fields,
	}
}

func (s *ESIndexer) IndexModel(ctx context.Context, m *models.Model) error {
	doc := DocumentFromModel(m)
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(body),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(doc.ID),
		s.ES.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index model: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index model: %s", res.Status())
	}
	return nil
}

func (s *ESIndexer) DeleteModel(ctx context.Context, id string) error {
	res, err := s.ES.Delete(s.Index, id, s.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete model doc: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete model doc: %s", res.Status())
	}
	return nil
}

func (s *ESIndexer) SearchModels(ctx context.Context, query string, from, size int) (int64, []Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, []Document{}, nil
	}
	if size <= 0 || size > util.MaxPageSize {
		size = util.DefaultPageSize
	}
	if from < 0 {
		from = 0
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"modelName^3", "identifier^2", "description", "fields"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search encode: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
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
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	docs := make([]Document, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

// Disabled is used when ES_URL is not set. Writes are dropped and
// searches report ErrUnavailable.
type Disabled struct{}

func (Disabled) IndexModel(context.Context, *models.Model) error { return nil }

func (Disabled) DeleteModel(context.Context, string) error { return nil }

func (Disabled) SearchModels(context.Context, string, int, int) (int64, []Document, error) {
	return 0, nil, ErrUnavailable
}
