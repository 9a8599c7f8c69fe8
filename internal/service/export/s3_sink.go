package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // MinIO и прочие S3-совместимые хранилища
	// AccessKeyID and SecretAccessKey are optional; the default credential chain is used otherwise.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Sink uploads every relation file as one object under Prefix.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Sink(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}}, optFns...)...)

	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Sink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Sink) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *S3Sink) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	return &s3Object{ctx: ctx, sink: s, key: s.key(name)}, nil
}

// s3Object buffers the file and uploads it on Close.
type s3Object struct {
	ctx  context.Context
	sink *S3Sink
	key  string
	buf  bytes.Buffer
}

func (o *s3Object) Write(p []byte) (int, error) {
	return o.buf.Write(p)
}

func (o *s3Object) Close() error {
	_, err := o.sink.client.PutObject(o.ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.sink.bucket),
		Key:         aws.String(o.key),
		Body:        bytes.NewReader(o.buf.Bytes()),
		ContentType: aws.String("text/tab-separated-values; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", o.key, err)
	}
	return nil
}
