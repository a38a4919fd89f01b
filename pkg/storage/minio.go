// Package storage 提供了与对象存储服务（MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"

	"mental-care-go/internal/config"
	"mental-care-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}
	log.Info("MinIO 客户端初始化成功")

	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := MinioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
	}
}

// ObjectStore 抽象出入库流程需要的对象读写。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
}

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore 基于 MinIO 客户端和存储桶创建 ObjectStore。
func NewObjectStore(client *minio.Client, bucket string) ObjectStore {
	return &minioStore{client: client, bucket: bucket}
}

func (s *minioStore) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("上传对象 %s 失败: %w", objectName, err)
	}
	return nil
}

func (s *minioStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("从 MinIO 下载对象 %s 失败: %w", objectName, err)
	}
	return obj, nil
}
