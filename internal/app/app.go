// Package app 组装服务进程与入库命令共用的组件。
package app

import (
	"fmt"

	"mental-care-go/internal/config"
	"mental-care-go/internal/pipeline"
	"mental-care-go/internal/vectorstore"
	"mental-care-go/pkg/embedding"
	"mental-care-go/pkg/es"
	"mental-care-go/pkg/llm"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/storage"
	"mental-care-go/pkg/tika"
	"mental-care-go/pkg/tokenizer"
)

// NewVectorIndex 按 ingestion.vector_store 打开本地索引或 Elasticsearch 索引。
func NewVectorIndex(cfg config.Config) (vectorstore.Index, error) {
	switch cfg.Ingestion.VectorStore {
	case "elasticsearch":
		if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
			return nil, fmt.Errorf("初始化 Elasticsearch 失败: %w", err)
		}
		log.Infof("[App] 使用 Elasticsearch 向量索引: %s", cfg.Elasticsearch.IndexName)
		return vectorstore.NewESIndex(es.ESClient, cfg.Elasticsearch.IndexName, cfg.Ingestion.IndexID, cfg.Embedding.Model), nil
	default:
		dir := cfg.Storage.Local.LocalPath(cfg.Storage.Local.VectorIndexDir)
		idx, err := vectorstore.OpenLocalIndex(dir, cfg.Ingestion.IndexID)
		if err != nil {
			return nil, fmt.Errorf("打开本地向量索引失败: %w", err)
		}
		log.Infof("[App] 使用本地向量索引: %s, 分块数: %d", dir, idx.Len())
		return idx, nil
	}
}

// NewLoader 在配置了 Tika 时启用二进制文档解析。
func NewLoader(cfg config.Config) *pipeline.Loader {
	if cfg.Tika.ServerURL == "" {
		return pipeline.NewLoader(nil)
	}
	return pipeline.NewLoader(tika.NewClient(cfg.Tika))
}

// NewProcessor 组装入库流水线。objects 为 nil 时只能处理本地文件。
func NewProcessor(cfg config.Config, index vectorstore.Index, objects storage.ObjectStore) (*pipeline.Processor, error) {
	tok, err := tokenizer.NewFromConfig(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	splitter, err := pipeline.NewTokenSplitter(tok, cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	llmClient := llm.NewClient(cfg.LLM)
	return pipeline.NewProcessor(pipeline.Options{
		Loader:     NewLoader(cfg),
		Splitter:   splitter,
		Extractor:  pipeline.NewSummaryExtractor(llmClient, cfg.LLM.Model, llm.ParamsFromConfig(cfg.LLM.Generation)),
		Embedder:   embedding.NewClient(cfg.Embedding),
		EmbedModel: cfg.Embedding.Model,
		Cache:      pipeline.LoadIngestionCache(cfg.Ingestion.CacheFile),
		Index:      index,
		Objects:    objects,
	}), nil
}
