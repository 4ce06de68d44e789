package s3infra

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-journal/internal/application/post"
	"github.com/go-journal/internal/config"
	"github.com/go-journal/internal/infrastructure/awscfg"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentGets bounds parallel GetObject calls during a load.
const maxConcurrentGets = 8

// API is the subset of *s3.Client used by PostSource.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awscfg.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// PostSource reads post files stored under a bucket prefix.
type PostSource struct {
	client API
	bucket string
	prefix string
}

func NewPostSource(client API, bucket, prefix string) *PostSource {
	return &PostSource{client: client, bucket: bucket, prefix: prefix}
}

func (s *PostSource) Load(ctx context.Context) ([]post.File, error) {
	var keys []string
	var files []post.File
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !isPostKey(key) {
				continue
			}
			keys = append(keys, key)
			files = append(files, post.File{
				Path:    strings.TrimPrefix(key, s.prefix),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentGets)
	for i, key := range keys {
		g.Go(func() error {
			data, err := s.download(gctx, key)
			if err != nil {
				return err
			}
			files[i].Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *PostSource) download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func isPostKey(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	return ext == ".yaml" || ext == ".yml"
}
