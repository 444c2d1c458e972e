package transport

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/metrics"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config addresses an S3-compatible bucket (MinIO in development).
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores each file as an object keyed by its fid.
type S3Uploader struct {
	bucket  string
	client  objectPutter
	opts    Options
	log     logging.Logger
	metrics *metrics.Metrics
}

// NewS3Uploader builds an S3 client from cfg. Static credentials are used
// when an access key is set, otherwise the default AWS chain applies.
func NewS3Uploader(ctx context.Context, cfg S3Config, opts Options, log logging.Logger, m *metrics.Metrics) (*S3Uploader, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(cfg.Bucket, client, opts, log, m), nil
}

func newS3Uploader(bucket string, client objectPutter, opts Options, log logging.Logger, m *metrics.Metrics) *S3Uploader {
	return &S3Uploader{
		bucket:  bucket,
		client:  client,
		opts:    opts.withDefaults(),
		log:     log.With("module", "transport"),
		metrics: m,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, req Request, onProgress ProgressFunc) Result {
	return runWithRetries(ctx, u.opts, "s3", req, u.log, u.metrics, onProgress, func(ctx context.Context) ([]byte, error) {
		return nil, u.put(ctx, req, onProgress)
	})
}

func (u *S3Uploader) put(ctx context.Context, req Request, onProgress ProgressFunc) error {
	f, err := os.Open(req.Path)
	if err != nil {
		return fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, u.opts.Timeout)
	defer cancel()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(req.FID),
		Body:          f,
		ContentLength: aws.Int64(req.FileSize),
		ContentType:   aws.String(contentType(req.FileType)),
		Metadata: map[string]string{
			"file-name": req.FileName,
			"owner":     req.Owner,
		},
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", req.FID, err)
	}

	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

func contentType(t string) string {
	if t == "" {
		return "application/octet-stream"
	}
	return t
}
