package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"mental-care-go/internal/pipeline"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/storage"
	"mental-care-go/pkg/tasks"

	"github.com/google/uuid"
)

// TaskDispatcher 投递入库任务，Kafka 生产者或同步处理器均可实现。
type TaskDispatcher interface {
	ProduceIngestTask(ctx context.Context, task tasks.IngestTask) error
}

// inlineDispatcher 在未启用 Kafka 时直接在当前请求中执行入库。
type inlineDispatcher struct {
	processor *pipeline.Processor
}

// NewInlineDispatcher 返回同步执行入库任务的 TaskDispatcher。
func NewInlineDispatcher(processor *pipeline.Processor) TaskDispatcher {
	return &inlineDispatcher{processor: processor}
}

func (d *inlineDispatcher) ProduceIngestTask(ctx context.Context, task tasks.IngestTask) error {
	return d.processor.Process(ctx, task)
}

// DocumentService 接收管理员上传的知识库文档。
type DocumentService interface {
	Upload(ctx context.Context, fileName string, r io.Reader, size int64, contentType, uploader string) (*tasks.IngestTask, error)
}

type documentService struct {
	loader     *pipeline.Loader
	objects    storage.ObjectStore
	dispatcher TaskDispatcher
}

// NewDocumentService 创建文档服务。
func NewDocumentService(loader *pipeline.Loader, objects storage.ObjectStore, dispatcher TaskDispatcher) DocumentService {
	return &documentService{loader: loader, objects: objects, dispatcher: dispatcher}
}

// Upload 把文件存入对象存储并投递入库任务。
func (s *documentService) Upload(ctx context.Context, fileName string, r io.Reader, size int64, contentType, uploader string) (*tasks.IngestTask, error) {
	fileName = filepath.Base(fileName)
	if !s.loader.Supported(fileName) {
		return nil, fmt.Errorf("%s: %w", fileName, pipeline.ErrUnsupportedFormat)
	}
	objectName := fmt.Sprintf("documents/%s/%s", uuid.NewString(), fileName)
	if err := s.objects.Put(ctx, objectName, r, size, contentType); err != nil {
		return nil, err
	}
	log.Infof("[DocumentService] 文件已上传到对象存储, object: %s, uploader: %s", objectName, uploader)

	task := tasks.IngestTask{ObjectName: objectName, FileName: fileName, UploadedBy: uploader}
	if err := s.dispatcher.ProduceIngestTask(ctx, task); err != nil {
		return nil, fmt.Errorf("投递入库任务失败: %w", err)
	}
	return &task, nil
}
