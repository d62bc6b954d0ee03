// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"formfiller-go/internal/config"
	"formfiller-go/pkg/log"
)

// 知识库文件在桶内的统一前缀。
const KnowledgePrefix = "knowledge/"

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶 (Bucket) 是否存在，如果不存在则创建
	ctx := context.Background()
	bucketName := cfg.BucketName
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}

	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
		err = MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", bucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", bucketName)
	}
}

// KnowledgeObjectName 返回知识库文件在桶内的对象名。
func KnowledgeObjectName(fileName string) string {
	return KnowledgePrefix + fileName
}

// KnowledgeStore 以固定的桶封装知识库对象的读写，供业务层依赖。
type KnowledgeStore struct {
	bucket string
}

// NewKnowledgeStore 创建一个绑定到配置存储桶的 KnowledgeStore。
func NewKnowledgeStore(cfg config.MinIOConfig) *KnowledgeStore {
	return &KnowledgeStore{bucket: cfg.BucketName}
}

// PutObject 写入（或覆盖）一个知识库对象。
func (s *KnowledgeStore) PutObject(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := MinioClient.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	return err
}

// RemoveObject 删除一个知识库对象。
func (s *KnowledgeStore) RemoveObject(ctx context.Context, objectName string) error {
	return MinioClient.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}
