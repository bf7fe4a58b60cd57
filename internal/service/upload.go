package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// MaxUploadSize 单个上传文件的大小上限 (10 MiB)。
const MaxUploadSize = 10 << 20

// allowedUploadExts 允许上传的文件扩展名。
var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".xlsx": true,
	".csv":  true,
}

// UploadService 负责文件上传。文件本体落盘，元数据入库。
type UploadService struct {
	uploadRepo repository.UploadRepository
	baseDir    string
}

// NewUploadService 创建 UploadService 实例，baseDir 是文件存储根目录。
func NewUploadService(uploadRepo repository.UploadRepository, baseDir string) (*UploadService, error) {
	if uploadRepo == nil {
		panic("UploadRepository cannot be nil for UploadService")
	}
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", baseDir, err)
	}
	return &UploadService{uploadRepo: uploadRepo, baseDir: baseDir}, nil
}

// Store 保存一个上传文件并记录元数据。
// size 超限或扩展名不在白名单内时拒绝，不落盘。
func (s *UploadService) Store(ctx context.Context, uploaderID uint, fileName, contentType string, size int64, r io.Reader) (*domain.Upload, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id":   uploaderID,
		"file_name": fileName,
		"size":      size,
	})

	if size <= 0 || size > MaxUploadSize {
		return nil, ErrUploadTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedUploadExts[ext] {
		return nil, ErrUploadBadType
	}

	// 磁盘文件名用随机 ID，避免路径穿越和重名覆盖
	storedName := uuid.NewString() + ext
	storedPath := filepath.Join(s.baseDir, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		logCtx.WithError(err).Error("Failed to create upload file")
		return nil, ErrInternalServer
	}
	written, err := io.Copy(dst, io.LimitReader(r, MaxUploadSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil || written > MaxUploadSize {
		os.Remove(storedPath)
		if written > MaxUploadSize {
			return nil, ErrUploadTooLarge
		}
		logCtx.WithError(err).Error("Failed to write upload file")
		return nil, ErrInternalServer
	}

	upload := &domain.Upload{
		UploaderID:  uploaderID,
		FileName:    filepath.Base(fileName),
		StoredPath:  storedPath,
		Size:        written,
		ContentType: contentType,
	}
	if err := s.uploadRepo.Save(ctx, upload); err != nil {
		os.Remove(storedPath)
		logCtx.WithError(err).Error("Failed to save upload record")
		return nil, ErrInternalServer
	}

	logCtx.WithField("upload_id", upload.ID).Info("File uploaded")
	return upload, nil
}

// Get 获取上传记录。
func (s *UploadService) Get(ctx context.Context, id uint) (*domain.Upload, error) {
	upload, err := s.uploadRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUploadNotFound
		}
		logrus.WithError(err).WithField("upload_id", id).Error("Failed to load upload record")
		return nil, ErrInternalServer
	}
	return upload, nil
}

// ListByUploader 列出某用户的全部上传记录。
func (s *UploadService) ListByUploader(ctx context.Context, uploaderID uint) ([]domain.Upload, error) {
	uploads, err := s.uploadRepo.ListByUploader(ctx, uploaderID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", uploaderID).Error("Failed to list uploads")
		return nil, ErrInternalServer
	}
	return uploads, nil
}
