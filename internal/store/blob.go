package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"orderbridge/internal/model"
)

// BlobStore 文件系统 blob 存储
//
// 核心把它当外部协作方：失败即请求终止，重试策略（若有）
// 属于调用方。
type BlobStore struct {
	baseDir string
}

// NewBlobStore 创建 blob 存储，根目录不存在时创建
func NewBlobStore(baseDir string) (*BlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, model.NewConvertError(model.CodeBlobStoreFailure,
			fmt.Sprintf("无法创建存储目录: %v", err))
	}
	return &BlobStore{baseDir: baseDir}, nil
}

// PutBlob 写入 blob，bucketHint 映射为子目录
func (b *BlobStore) PutBlob(name string, data []byte, bucketHint string) error {
	path, err := b.resolve(name, bucketHint)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return model.NewConvertError(model.CodeBlobStoreFailure,
			fmt.Sprintf("无法创建目录: %v", err))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return model.NewConvertError(model.CodeBlobStoreFailure,
			fmt.Sprintf("写入失败: %v", err))
	}
	return nil
}

// GetBlob 读取 blob
func (b *BlobStore) GetBlob(name, bucketHint string) ([]byte, error) {
	path, err := b.resolve(name, bucketHint)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewConvertError(model.CodeBlobStoreFailure,
			fmt.Sprintf("读取失败: %v", err))
	}
	return data, nil
}

// resolve 拼出 blob 路径并拦住目录穿越
func (b *BlobStore) resolve(name, bucketHint string) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", model.NewConvertError(model.CodeBlobStoreFailure, "非法的 blob 名称")
	}
	bucket := filepath.Base(strings.TrimSpace(bucketHint))
	if bucket == "" || bucket == "." {
		bucket = "default"
	}
	return filepath.Join(b.baseDir, bucket, clean), nil
}
