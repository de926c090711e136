package oss

import (
	"context"
	"errors"
	"fmt"
	"time"

	appconfig "github.com/Honahec/CloudBackend/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// ErrObjectNotFound 表示 HEAD 探测未找到对象。
var ErrObjectNotFound = errors.New("oss: object not found")

// UploadPolicy 是时限内有效、前缀受限的直传授权。
// SizeCeiling 是准入上限而非计费大小，实际大小在上传完成确认时以 HEAD 为准。
type UploadPolicy struct {
	URL         string            `json:"url"`
	Fields      map[string]string `json:"fields"` // 含 policy 与签名字段
	ObjectKey   string            `json:"object_key"`
	KeyPrefix   string            `json:"key_prefix"`
	Expire      time.Time         `json:"expire"`
	SizeCeiling int64             `json:"size_ceiling"`
}

// Gateway 包装外部对象存储服务。所有调用都是带短超时的同步外部请求。
type Gateway interface {
	IssueUploadPolicy(ctx context.Context, userID uint, declaredSize int64) (UploadPolicy, error)
	IssueDownloadURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
	GetObjectSize(ctx context.Context, objectKey string) (int64, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

type Client struct {
	cfg     appconfig.OSSConfig
	client  *s3.Client
	presign *s3.PresignClient
	timeout time.Duration
}

func NewClient(cfg appconfig.OSSConfig) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("初始化 OSS 凭证失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	})

	return &Client{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	}, nil
}

// SizeCeiling 在声明大小上加 max(1MiB, 10%) 的缓冲，吸收编码与传输开销。
func SizeCeiling(declaredSize int64) int64 {
	buffer := declaredSize / 10
	if buffer < 1024*1024 {
		buffer = 1024 * 1024
	}
	return declaredSize + buffer
}

func userKeyPrefix(userID uint) string {
	return fmt.Sprintf("files/%d/", userID)
}

func (c *Client) IssueUploadPolicy(ctx context.Context, userID uint, declaredSize int64) (UploadPolicy, error) {
	prefix := userKeyPrefix(userID)
	key := prefix + uuid.New().String()
	ceiling := SizeCeiling(declaredSize)
	expires := time.Duration(appconfig.AppConfig.Storage.PolicyExpire) * time.Second

	req, err := c.presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = expires
		o.Conditions = []interface{}{
			[]interface{}{"content-length-range", int64(0), ceiling},
		}
	})
	if err != nil {
		return UploadPolicy{}, err
	}

	return UploadPolicy{
		URL:         req.URL,
		Fields:      req.Values,
		ObjectKey:   key,
		KeyPrefix:   prefix,
		Expire:      time.Now().Add(expires),
		SizeCeiling: ceiling,
	}, nil
}

func (c *Client) IssueDownloadURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Duration(appconfig.AppConfig.Storage.DownloadExpire) * time.Second
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (c *Client) GetObjectSize(ctx context.Context, objectKey string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, ErrObjectNotFound
		}
		return 0, err
	}
	return aws.ToInt64(out.ContentLength), nil
}

// DeleteObject 幂等：对象不存在视为删除成功。
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
