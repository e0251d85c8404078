package ioinput

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the part of the S3 client the Reader uses.
type ObjectGetter interface {
	GetObject(
		ctx context.Context,
		in *s3.GetObjectInput,
		opts ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)
}

// Reader loads rows from local paths and s3://bucket/key locations.
// It is safe for concurrent use.
type Reader struct {
	cfg    config.S3Config
	mu     sync.Mutex
	client ObjectGetter
}

// Option configures a Reader.
type Option func(*Reader)

// OptS3Client sets the S3 client. By default a client is created from
// the AWS default credential chain on the first s3:// location.
func OptS3Client(c ObjectGetter) Option {
	return func(r *Reader) {
		r.client = c
	}
}

// NewReader creates a Reader.
func NewReader(cfg config.S3Config, opts ...Option) *Reader {
	res := &Reader{cfg: cfg}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Load reads all rows of a location. The format comes from the file
// extension.
func (r *Reader) Load(ctx context.Context, location string) ([]ingest.Row, error) {
	return r.LoadFormat(ctx, location, FormatOf(location))
}

// LoadFormat reads all rows of a location in the given format.
func (r *Reader) LoadFormat(
	ctx context.Context,
	location string,
	f Format,
) ([]ingest.Row, error) {
	if f == UnknownFormat {
		return nil, FormatError(location)
	}

	rc, err := r.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := Decode(rc, f)
	if err != nil {
		return nil, ParseError(location, err)
	}
	return rows, nil
}

// Open returns the content of a location.
func (r *Reader) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "s3://") {
		f, err := os.Open(location)
		if err != nil {
			return nil, OpenError(location, err)
		}
		return f, nil
	}

	bucket, key, err := parseS3(location)
	if err != nil {
		return nil, S3Error(location, err)
	}
	client, err := r.s3Client(ctx)
	if err != nil {
		return nil, S3Error(location, err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, S3Error(location, err)
	}
	return out.Body, nil
}

func (r *Reader) s3Client(ctx context.Context) (ObjectGetter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	client, err := newS3Client(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

func parseS3(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", &url.Error{
			Op:  "parse",
			URL: location,
			Err: os.ErrInvalid,
		}
	}
	return u.Host, key, nil
}

func newS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
