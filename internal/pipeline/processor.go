// Package pipeline 定义了文档入库的核心流程：加载、切分、摘要、向量化、写入索引。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"mental-care-go/internal/model"
	"mental-care-go/internal/vectorstore"
	"mental-care-go/pkg/embedding"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/metrics"
	"mental-care-go/pkg/storage"
	"mental-care-go/pkg/tasks"
)

// 缓存步骤名
const (
	stepSplit     = "TokenTextSplitter"
	stepSummary   = "SummaryExtractor"
	stepEmbedding = "Embedding"
)

// Processor 封装了文档入库的所有依赖和逻辑。
type Processor struct {
	loader     *Loader
	splitter   *TokenSplitter
	extractor  *SummaryExtractor
	embedder   embedding.Client
	embedModel string
	cache      *IngestionCache
	index      vectorstore.Index
	objects    storage.ObjectStore
}

// Options 汇总 Processor 的依赖。Objects 仅在消费 Kafka 任务时需要。
type Options struct {
	Loader     *Loader
	Splitter   *TokenSplitter
	Extractor  *SummaryExtractor
	Embedder   embedding.Client
	EmbedModel string
	Cache      *IngestionCache
	Index      vectorstore.Index
	Objects    storage.ObjectStore
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(opts Options) *Processor {
	cache := opts.Cache
	if cache == nil {
		cache = LoadIngestionCache("")
	}
	return &Processor{
		loader:     opts.Loader,
		splitter:   opts.Splitter,
		extractor:  opts.Extractor,
		embedder:   opts.Embedder,
		embedModel: opts.EmbedModel,
		cache:      cache,
		index:      opts.Index,
		objects:    opts.Objects,
	}
}

// RunFiles 对本地文件执行完整流水线，结束时持久化缓存。
func (p *Processor) RunFiles(ctx context.Context, paths []string) ([]model.DocumentChunk, error) {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := p.loader.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return p.Run(ctx, docs)
}

// Run 对已加载的文档执行切分、摘要、向量化并写入索引。
func (p *Processor) Run(ctx context.Context, docs []Document) ([]model.DocumentChunk, error) {
	var all []model.DocumentChunk
	var runErr error
	for _, doc := range docs {
		chunks, err := p.transform(ctx, doc)
		if err != nil {
			runErr = fmt.Errorf("处理文档 %s 失败: %w", doc.ID, err)
			break
		}
		all = append(all, chunks...)
	}

	// 即使中途失败，已完成的步骤也写回缓存，重跑时不再重复调用模型
	if err := p.cache.Persist(); err != nil {
		log.Warnf("[Processor] 持久化入库缓存失败: %v", err)
	}
	if runErr != nil {
		return nil, runErr
	}

	// 同一文档重新入库时，旧版本多出的分块要先清掉
	for _, doc := range docs {
		if err := p.index.DeleteDoc(ctx, doc.ID); err != nil {
			return nil, fmt.Errorf("清理文档 %s 的旧分块失败: %w", doc.ID, err)
		}
	}
	if len(all) > 0 {
		if err := p.index.Upsert(ctx, all); err != nil {
			return nil, fmt.Errorf("写入向量索引失败: %w", err)
		}
	}
	log.Infof("[Processor] 入库完成, 文档数: %d, 分块数: %d", len(docs), len(all))
	return all, nil
}

func (p *Processor) transform(ctx context.Context, doc Document) ([]model.DocumentChunk, error) {
	log.Infof("[Processor] 开始处理文档: %s", doc.ID)

	var texts []string
	splitKey := CacheKey(stepSplit, p.splitter.Params(), doc.Text)
	if !p.cache.Get(splitKey, &texts) {
		texts = p.splitter.Split(doc.Text)
		if err := p.cache.Put(splitKey, texts); err != nil {
			return nil, err
		}
	}
	log.Infof("[Processor] 文档 %s 切分为 %d 个分块", doc.ID, len(texts))

	chunks := make([]model.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		chunk := model.DocumentChunk{ChunkID: model.ChunkID(doc.ID, i), DocID: doc.ID, Index: i, Text: text}
		cached := true

		summaryKey := CacheKey(stepSummary, p.extractor.Params(), text)
		if !p.cache.Get(summaryKey, &chunk.Summary) {
			cached = false
			summary, err := p.extractor.Summarize(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("分块 %d: %w", i, err)
			}
			chunk.Summary = summary
			if err := p.cache.Put(summaryKey, summary); err != nil {
				return nil, err
			}
		}

		embedKey := CacheKey(stepEmbedding, "model="+p.embedModel, text)
		if !p.cache.Get(embedKey, &chunk.Embedding) || len(chunk.Embedding) == 0 {
			cached = false
			vec, err := p.embedder.CreateEmbedding(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("分块 %d 向量化失败: %w", i, err)
			}
			chunk.Embedding = vec
			if err := p.cache.Put(embedKey, vec); err != nil {
				return nil, err
			}
		}

		metrics.IngestChunks.WithLabelValues(strconv.FormatBool(cached)).Inc()
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Process 处理 Kafka 投递的入库任务：从对象存储下载源文件后执行流水线。
func (p *Processor) Process(ctx context.Context, task tasks.IngestTask) error {
	if p.objects == nil {
		return errors.New("对象存储未配置")
	}
	log.Infof("[Processor] 从对象存储下载文件, Object: %s", task.ObjectName)
	obj, err := p.objects.Get(ctx, task.ObjectName)
	if err != nil {
		return err
	}
	defer obj.Close()

	doc, err := p.loader.Load(ctx, obj, task.FileName)
	if err != nil {
		return err
	}
	_, err = p.Run(ctx, []Document{doc})
	return err
}
