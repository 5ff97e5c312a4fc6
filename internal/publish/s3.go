package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/songplays/internal/config"
)

const (
	defaultRegion = "us-east-1"
	stagingDir    = "_staging"
	// maxDeleteBatch is the DeleteObjects request limit.
	maxDeleteBatch = 1000
)

// S3API is the subset of the S3 client used for publication.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from explicit storage settings. Without
// static keys the SDK's default credential chain applies.
func NewS3Client(ctx context.Context, storage config.StorageConfig) (*s3.Client, error) {
	region := storage.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if storage.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			storage.AccessKeyID, storage.SecretAccessKey, storage.SessionToken,
		)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(storage))
		}
		o.UsePathStyle = storage.URLStyle == "path"
	}), nil
}

// endpointURL adds a scheme to a host[:port] endpoint.
func endpointURL(storage config.StorageConfig) string {
	if strings.Contains(storage.Endpoint, "://") {
		return storage.Endpoint
	}
	scheme := "https"
	if storage.UseSSL != nil && !*storage.UseSSL {
		scheme = "http"
	}
	return scheme + "://" + storage.Endpoint
}

// S3Publisher publishes a staging prefix by copying its objects into the
// output prefix.
type S3Publisher struct {
	client      S3API
	bucket      string
	prefix      string // output prefix, "" or ending in "/"
	concurrency int
	logger      *slog.Logger
}

// NewS3Publisher creates a publisher for an s3://bucket/prefix output root.
func NewS3Publisher(client S3API, root string, concurrency int, logger *slog.Logger) (*S3Publisher, error) {
	bucket, prefix, err := parseS3URL(root)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &S3Publisher{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// StagingRoot implements Publisher.
func (p *S3Publisher) StagingRoot(runID string) string {
	return "s3://" + p.bucket + "/" + p.prefix + stagingDir + "/" + runID
}

// Publish implements Publisher. New objects overwrite their final keys,
// objects under the published table prefixes that the run did not produce
// are deleted, and the manifest is written last.
func (p *S3Publisher) Publish(ctx context.Context, staging string, m *Manifest) error {
	stagingPrefix, err := p.stagingPrefix(staging)
	if err != nil {
		return err
	}

	staged, err := p.list(ctx, stagingPrefix)
	if err != nil {
		return err
	}

	published := make(map[string]bool, len(staged))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, key := range staged {
		dest := p.prefix + strings.TrimPrefix(key, stagingPrefix)
		published[dest] = true
		g.Go(func() error {
			_, err := p.client.CopyObject(gctx, &s3.CopyObjectInput{
				Bucket:     aws.String(p.bucket),
				Key:        aws.String(dest),
				CopySource: aws.String(copySource(p.bucket, key)),
			})
			if err != nil {
				return fmt.Errorf("failed to copy %s to %s: %w", key, dest, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var stale []string
	for _, dir := range m.TableDirs() {
		existing, err := p.list(ctx, p.prefix+dir+"/")
		if err != nil {
			return err
		}
		for _, key := range existing {
			if !published[key] {
				stale = append(stale, key)
			}
		}
	}
	if err := p.delete(ctx, stale); err != nil {
		return err
	}

	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if _, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.prefix + ManifestFile),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/yaml"),
	}); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	p.logger.Info("output published",
		slog.String("bucket", p.bucket),
		slog.String("prefix", p.prefix),
		slog.Int("objects", len(staged)),
		slog.Int("stale_deleted", len(stale)),
	)

	return p.delete(ctx, staged)
}

// Discard implements Publisher.
func (p *S3Publisher) Discard(ctx context.Context, staging string) error {
	stagingPrefix, err := p.stagingPrefix(staging)
	if err != nil {
		return err
	}
	keys, err := p.list(ctx, stagingPrefix)
	if err != nil {
		return err
	}
	return p.delete(ctx, keys)
}

func (p *S3Publisher) stagingPrefix(staging string) (string, error) {
	bucket, prefix, err := parseS3URL(staging)
	if err != nil {
		return "", err
	}
	if bucket != p.bucket {
		return "", fmt.Errorf("staging %s is not in bucket %s", staging, p.bucket)
	}
	return prefix, nil
}

// list returns every key under prefix.
func (p *S3Publisher) list(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", p.bucket, prefix, err)
		}
		for _, object := range output.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}
	return keys, nil
}

// delete removes keys in batches.
func (p *S3Publisher) delete(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		output, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(p.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if output != nil && len(output.Errors) > 0 {
			first := output.Errors[0]
			return fmt.Errorf("failed to delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

// parseS3URL splits s3://bucket/prefix into its bucket and a prefix that is
// empty or ends in "/".
func parseS3URL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %s: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url %s: expected s3://bucket/prefix", raw)
	}

	prefix := strings.Trim(u.Path, "/")
	if prefix != "" {
		prefix += "/"
	}
	return u.Host, prefix, nil
}

// copySource renders bucket/key with each key segment URL-escaped.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
