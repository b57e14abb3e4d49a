package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/OFFIS-RIT/coursegraph/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

func LoadS3Config() S3Config {
	return S3Config{
		Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
		Endpoint:  util.GetEnv("AWS_ENDPOINT"),
		AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey: util.GetEnv("AWS_SECRET_KEY"),
		Bucket:    util.GetEnvString("AWS_BUCKET", "coursegraph"),
	}
}

// NewS3Client builds a path-style client, which is what MinIO and most
// self-hosted endpoints expect.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// ObjectWriter is the part of the S3 API uploads need.
type ObjectWriter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Uploads stores user files under random keys in one bucket.
type Uploads struct {
	bucket string
	client ObjectWriter
}

func NewUploads(bucket string, client ObjectWriter) *Uploads {
	return &Uploads{bucket: bucket, client: client}
}

func (u *Uploads) Bucket() string {
	return u.bucket
}

// Put stores body as prefix/<nanoid>.<ext> and returns the key. The
// extension is taken from name so the worker can pick a loader.
func (u *Uploads) Put(ctx context.Context, prefix, name string, body io.Reader) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	ext := util.FileExtension(name)
	key := path.Join(prefix, id+"."+ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if mimeType := mime.TypeByExtension("." + ext); mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return key, nil
}

func (u *Uploads) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
