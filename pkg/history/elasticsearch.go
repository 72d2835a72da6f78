package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/gamemaster/internal/types"
)

// ElasticsearchConfig holds configuration options for the Elasticsearch repository
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
	// Transport replaces the HTTP transport, mostly for tests
	Transport http.RoundTripper
}

const victoryMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"guild_id": { "type": "keyword" },
			"listener": { "type": "keyword" },
			"channel_id": { "type": "keyword" },
			"helped": { "type": "boolean" },
			"round": { "type": "integer" },
			"won_at": { "type": "date" }
		}
	}
}`

// ElasticsearchRepository implements the Repository interface using Elasticsearch
type ElasticsearchRepository struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticsearchRepository connects to Elasticsearch and creates the victory index
func NewElasticsearchRepository(ctx context.Context, config ElasticsearchConfig) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
		Transport: config.Transport,
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	prefix := config.IndexPrefix
	if prefix == "" {
		prefix = "gamemaster"
	}

	repo := &ElasticsearchRepository{client: client, index: prefix + "_victories"}
	if err := repo.initIndex(ctx); err != nil {
		return nil, fmt.Errorf("error initializing index: %w", err)
	}
	return repo, nil
}

func (r *ElasticsearchRepository) initIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if victory index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: r.index,
		Body:  bytes.NewReader([]byte(victoryMapping)),
	}
	created, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error creating victory index: %w", err)
	}
	defer created.Body.Close()

	if created.IsError() {
		return fmt.Errorf("error creating victory index: %s", created.String())
	}
	return nil
}

// SaveVictory indexes a victory under its id
func (r *ElasticsearchRepository) SaveVictory(ctx context.Context, record *Record) error {
	if err := validRecord(record); err != nil {
		return err
	}
	doc := *record
	doc.WonAt = doc.WonAt.UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return types.WrapError(types.ErrInternalError, "error marshaling victory", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(record.ID),
		r.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "error indexing victory", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return types.NewGameError(types.ErrDatabaseError, "error indexing victory: "+res.String())
	}
	return nil
}

// ListVictories returns the most recent victories first
func (r *ElasticsearchRepository) ListVictories(ctx context.Context, guildID, listener string, limit int) ([]*Record, error) {
	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"guild_id": guildID}},
	}
	if listener != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"listener": listener}})
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": map[string]interface{}{"filter": filters}},
		"sort":  []map[string]interface{}{{"won_at": map[string]string{"order": "desc"}}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "error encoding query", err)
	}
	if limit <= 0 {
		limit = 1000
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "error searching victories", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, types.NewGameError(types.ErrDatabaseError, "error searching victories: "+res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source Record `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "error parsing victories", err)
	}

	records := make([]*Record, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		rec := hit.Source
		records = append(records, &rec)
	}
	return records, nil
}

// Prune deletes victories older than before
func (r *ElasticsearchRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	query := fmt.Sprintf(`{"query": {"range": {"won_at": {"lt": %q}}}}`, before.UTC().Format(time.RFC3339Nano))

	res, err := r.client.DeleteByQuery(
		[]string{r.index},
		bytes.NewReader([]byte(query)),
		r.client.DeleteByQuery.WithContext(ctx),
		r.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return 0, types.WrapError(types.ErrDatabaseError, "error pruning victories", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, types.NewGameError(types.ErrDatabaseError, "error pruning victories: "+res.String())
	}

	var result struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return 0, types.WrapError(types.ErrDatabaseError, "error parsing prune result", err)
	}
	return result.Deleted, nil
}

// Close is a no-op, the client holds no connection to release
func (r *ElasticsearchRepository) Close() error {
	return nil
}
