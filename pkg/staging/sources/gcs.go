package sources

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ObjectStore is the read side of a bucket holding upstream exports.
type ObjectStore interface {
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type GCSStore struct {
	client *storage.Client
}

// NewGCSStore uses the service account file when given, application default credentials otherwise.
func NewGCSStore(ctx context.Context, credentialsPath string) (*GCSStore, error) {
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadOnly)}
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[source error] unable to create storage client")
	}
	return &GCSStore{client: client}, nil
}

func (g *GCSStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	it := g.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "[source error] unable to list gs://%s/%s", bucket, prefix)
		}
		if isSupported(attrs.Name) {
			names = append(names, attrs.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (g *GCSStore) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "[source error] unable to open gs://%s/%s", bucket, object)
	}
	return r, nil
}

func (g *GCSStore) Close() error {
	return g.client.Close()
}

// splitGCSURL turns gs://bucket/path into (bucket, path).
func splitGCSURL(raw string) (string, string, error) {
	rest := strings.TrimPrefix(raw, gcsScheme)
	bucket, object, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.Errorf("[source error] missing bucket in %q", raw)
	}
	return bucket, object, nil
}
