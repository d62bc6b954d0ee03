package service

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"

	"formfiller-go/internal/ingest"
	"formfiller-go/internal/model"
	"formfiller-go/internal/repository"
	"formfiller-go/pkg/kafka"
	"formfiller-go/pkg/log"
	"formfiller-go/pkg/storage"
	"formfiller-go/pkg/tasks"
)

// ErrFileNotFound 表示请求的知识库文件不存在。
var ErrFileNotFound = errors.New("文件不存在")

// ObjectStore 是知识库文件内容的存取接口，生产环境由 MinIO 实现。
type ObjectStore interface {
	PutObject(ctx context.Context, objectName string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, objectName string) error
}

// DocumentService 接口定义了知识库文件管理的业务操作。
// 文件内容存放在对象存储，元数据记录在 documents 表；
// 每次变更都会投递一个索引重建任务。
type DocumentService interface {
	Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*model.Document, error)
	List(ctx context.Context) ([]model.Document, error)
	Delete(ctx context.Context, fileName string) error
}

type documentService struct {
	docRepo repository.DocumentRepository
	objects ObjectStore
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(docRepo repository.DocumentRepository, objects ObjectStore) DocumentService {
	return &documentService{
		docRepo: docRepo,
		objects: objects,
	}
}

// Upload 将文件写入对象存储并登记元数据。
// 相同内容（MD5 一致）的文件直接返回已有记录；
// 同名但内容变更的文件覆盖对象并更新原有记录，不产生重复行。
func (s *documentService) Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*model.Document, error) {
	if !ingest.IsSupported(fileName) {
		return nil, fmt.Errorf("%w: %s", ingest.ErrUnsupportedFormat, fileName)
	}

	// 个人语料库的文件都很小，读入内存以便同时计算 MD5 和上传
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取上传内容失败: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("文件内容为空")
	}
	fileMD5 := fmt.Sprintf("%x", md5.Sum(data))

	// 幂等检查：内容相同的文件已存在时直接复用
	if existing, err := s.docRepo.FindByMD5(fileMD5); err != nil {
		return nil, fmt.Errorf("查询文件记录失败: %w", err)
	} else if existing != nil {
		log.Infof("[DocumentService] 文件已存在, 跳过上传: %s (md5=%s)", fileName, fileMD5)
		return existing, nil
	}

	// 同名旧记录：这是一次内容更新，复用记录而不是新建
	previous, err := s.docRepo.FindByName(fileName)
	if err != nil {
		return nil, fmt.Errorf("查询文件记录失败: %w", err)
	}

	objectName := storage.KnowledgeObjectName(fileName)
	if err := s.objects.PutObject(ctx, objectName, data, contentType); err != nil {
		return nil, fmt.Errorf("上传文件到对象存储失败: %w", err)
	}

	reason := "upload"
	var doc *model.Document
	if previous != nil {
		previous.FileMD5 = fileMD5
		previous.FileSize = int64(len(data))
		previous.ContentType = contentType
		if err := s.docRepo.Update(previous); err != nil {
			return nil, fmt.Errorf("更新文件记录失败: %w", err)
		}
		doc = previous
		reason = "update"
		log.Infof("[DocumentService] 文件内容已更新: %s (md5=%s)", fileName, fileMD5)
	} else {
		doc = &model.Document{
			FileMD5:     fileMD5,
			FileName:    fileName,
			FileSize:    int64(len(data)),
			ContentType: contentType,
		}
		if err := s.docRepo.Create(doc); err != nil {
			return nil, fmt.Errorf("保存文件记录失败: %w", err)
		}
	}

	// 投递重建任务；失败只记录日志，用户仍可手动触发重建
	if err := kafka.ProduceRebuildTask(tasks.IndexRebuildTask{
		Reason:   reason,
		FileMD5:  fileMD5,
		FileName: fileName,
	}); err != nil {
		log.Errorf("[DocumentService] 投递重建任务失败: %v", err)
	}

	log.Infof("[DocumentService] 文件上传完成: %s (%d 字节)", fileName, len(data))
	return doc, nil
}

// List 返回知识库中的所有文件。
func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.docRepo.FindAll()
}

// Delete 删除知识库文件：先移除对象，再删除元数据，最后投递重建任务。
func (s *documentService) Delete(ctx context.Context, fileName string) error {
	doc, err := s.docRepo.FindByName(fileName)
	if err != nil {
		return fmt.Errorf("查询文件记录失败: %w", err)
	}
	if doc == nil {
		return ErrFileNotFound
	}

	objectName := storage.KnowledgeObjectName(fileName)
	if err := s.objects.RemoveObject(ctx, objectName); err != nil {
		// 对象可能已不存在，继续删除数据库记录
		log.Warnf("[DocumentService] 删除对象失败: %s, err=%v", objectName, err)
	}

	if err := s.docRepo.DeleteByName(fileName); err != nil {
		return fmt.Errorf("删除文件记录失败: %w", err)
	}

	if err := kafka.ProduceRebuildTask(tasks.IndexRebuildTask{
		Reason:   "delete",
		FileMD5:  doc.FileMD5,
		FileName: fileName,
	}); err != nil {
		log.Errorf("[DocumentService] 投递重建任务失败: %v", err)
	}

	log.Infof("[DocumentService] 文件已删除: %s", fileName)
	return nil
}
