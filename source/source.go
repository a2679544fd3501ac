package source

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const s3Scheme = "s3"

// Config describes an S3-compatible object store such as DigitalOcean Spaces.
// Empty credentials fall back to the default AWS credential chain.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// ObjectGetter is the subset of *s3.Client the resolver needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Resolver turns a file argument into a Blob. Local paths are opened lazily;
// s3://bucket/key objects are downloaded up front so a missing object is
// reported before anything is submitted.
type Resolver struct {
	cfg    Config
	logger *logrus.Logger

	once   sync.Once
	client ObjectGetter
	err    error
}

func NewResolver(cfg Config, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// NewResolverWithClient uses client for s3 references instead of building
// one from cfg.
func NewResolverWithClient(client ObjectGetter, logger *logrus.Logger) *Resolver {
	r := NewResolver(Config{}, logger)
	r.once.Do(func() { r.client = client })
	return r
}

func (r *Resolver) Resolve(ctx context.Context, ref string) (*models.Blob, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty file reference")
	}

	bucket, key, ok, err := ParseS3URL(ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		blob, err := models.BlobFromFile(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", ref)
		}
		return blob, nil
	}
	return r.fetch(ctx, bucket, key)
}

func (r *Resolver) fetch(ctx context.Context, bucket, key string) (*models.Blob, error) {
	client, err := r.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading s3://%s/%s", bucket, key)
	}

	r.logger.WithFields(logrus.Fields{
		"bucket": bucket,
		"key":    key,
		"bytes":  len(data),
	}).Debug("Fetched object")

	return models.BlobFromBytes(path.Base(key), data), nil
}

func (r *Resolver) s3Client(ctx context.Context) (ObjectGetter, error) {
	r.once.Do(func() {
		r.client, r.err = newS3Client(ctx, r.cfg)
	})
	return r.client, r.err
}

func newS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3URL splits an s3://bucket/key reference. ok is false for anything
// that is not an s3 reference.
func ParseS3URL(ref string) (bucket, key string, ok bool, err error) {
	if !strings.HasPrefix(strings.ToLower(ref), s3Scheme+"://") {
		return "", "", false, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", "", true, errors.Wrapf(err, "invalid s3 reference %s", ref)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", true, errors.Errorf("s3 reference %s must name a bucket and an object key", ref)
	}
	return bucket, key, true, nil
}
