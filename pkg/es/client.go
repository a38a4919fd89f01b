// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mental-care-go/internal/config"
	"mental-care-go/internal/model"
	"mental-care-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端并确保分块索引存在
func InitES(esCfg config.ElasticsearchConfig, dims int) error {
	client, err := NewClient(esCfg)
	if err != nil {
		return err
	}
	ESClient = client
	return CreateIndexIfNotExists(context.Background(), client, esCfg.IndexName, dims)
}

// NewClient 按配置创建客户端，不做任何网络调用。
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return elasticsearch.NewClient(cfg)
}

// CreateIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func CreateIndexIfNotExists(ctx context.Context, client *elasticsearch.Client, indexName string, dims int) error {
	res, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"chunk_id": { "type": "keyword" },
				"doc_id": { "type": "keyword" },
				"chunk_index": { "type": "integer" },
				"index_id": { "type": "keyword" },
				"text_content": { "type": "text" },
				"summary": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" }
			}
		}
	}`, dims)

	createRes, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, createRes.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}
	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexDocument 将单个分块索引到 Elasticsearch，文档 ID 即 chunk_id。
func IndexDocument(ctx context.Context, client *elasticsearch.Client, indexName string, doc model.EsChunkDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.ChunkID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index document")
	}
	return nil
}

// DeleteByDocID 删除 indexID 范围内属于 docID 的全部分块。
func DeleteByDocID(ctx context.Context, client *elasticsearch.Client, indexName, indexID, docID string) (int, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"doc_id": docID}},
					map[string]interface{}{"term": map[string]interface{}{"index_id": indexID}},
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return 0, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := client.DeleteByQuery(
		[]string{indexName},
		&buf,
		client.DeleteByQuery.WithContext(ctx),
		client.DeleteByQuery.WithRefresh(true),
		client.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch delete_by_query failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("elasticsearch returned an error: %s, body: %s", res.Status(), string(body))
	}

	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode es response: %w", err)
	}
	return out.Deleted, nil
}

// KnnHit 是一次 kNN 检索的命中。
type KnnHit struct {
	Source model.EsChunkDocument `json:"_source"`
	Score  float64               `json:"_score"`
}

// KnnSearch 在 indexID 范围内执行 kNN 检索。
func KnnSearch(ctx context.Context, client *elasticsearch.Client, indexName, indexID string, vector []float32, k int) ([]KnnHit, error) {
	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 10,
			"filter": map[string]interface{}{
				"term": map[string]interface{}{"index_id": indexID},
			},
		},
		"_source": map[string]interface{}{"excludes": []string{"vector"}},
		"size":    k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(indexName),
		client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch returned an error: %s, body: %s", res.Status(), string(body))
	}

	var esResponse struct {
		Hits struct {
			Hits []KnnHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}
	return esResponse.Hits.Hits, nil
}
