package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"mindwell/config"
)

type Client interface {
	IndexDocument(ctx context.Context, id string, document interface{}) error
	Search(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error)
	DeleteDocument(ctx context.Context, id string) error
}

type elasticClient struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticClient(cfg config.ElasticConfig) (Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Elasticsearch: %w", err)
	}

	// Проверка подключения
	res, err := es.Ping()
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch недоступен: %s", res.Status())
	}

	return &elasticClient{client: es, index: cfg.Index}, nil
}

func (e *elasticClient) IndexDocument(ctx context.Context, id string, document interface{}) error {
	jsonDoc, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("ошибка сериализации документа: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: id,
		Body:       strings.NewReader(string(jsonDoc)),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("ошибка индексации документа: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ошибка Elasticsearch: %s", res.String())
	}

	return nil
}

func (e *elasticClient) Search(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("ошибка кодирования запроса: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(strings.NewReader(buf.String())),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("ошибка Elasticsearch: %s", res.String())
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа: %w", err)
	}

	hits, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	hitList, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, nil
	}

	results := make([]map[string]interface{}, 0, len(hitList))
	for _, hit := range hitList {
		h, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if source, ok := h["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}

func (e *elasticClient) DeleteDocument(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id,
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("ошибка удаления документа: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("ошибка Elasticsearch: %s", res.String())
	}

	return nil
}
