// Package storage 封装对象存储（S3 兼容）的上传、删除与公开 URL 生成。
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore 是组织素材（logo、精选照片）所需的最小存储接口。
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// Options 创建 MinIO 存储所需的参数。
type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

type minioStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewMinioStore 连接对象存储。bucket 需事先创建并设置为公开读。
func NewMinioStore(opts Options) (ObjectStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	base := opts.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String()
	}
	return &minioStore{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: base,
	}, nil
}

// Upload 以覆盖方式写入对象。
func (s *minioStore) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Remove 删除对象；对象不存在时 S3 语义下同样返回成功。
func (s *minioStore) Remove(ctx context.Context, objectPath string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{})
}

func (s *minioStore) PublicURL(objectPath string) string {
	return JoinPublicURL(s.publicBaseURL, s.bucket, objectPath)
}

// JoinPublicURL 拼出 <base>/<bucket>/<path>，路径各段做 URL 转义。
func JoinPublicURL(base, bucket, objectPath string) string {
	segments := strings.Split(path.Join(bucket, objectPath), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// LogoPath 组织 logo 的固定路径，新 logo 总是覆盖同一路径。
func LogoPath(slug string) string {
	return slug + "/logo"
}

// FeaturedPhotoPath 第 index 张精选照片的路径，ext 含前导点，可为空。
func FeaturedPhotoPath(slug string, index int, ext string) string {
	return fmt.Sprintf("%s/featured-%d%s", slug, index, strings.ToLower(ext))
}
