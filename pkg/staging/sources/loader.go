package sources

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

type Decoder func(io.Reader) ([]staging.RawMatch, error)

// DecoderFor picks a decoder from the file extension.
func DecoderFor(name string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadFlatCSV, nil
	case ".json":
		return ReadJSON, nil
	default:
		return nil, errors.Errorf("[source error] unsupported file type %q", name)
	}
}

func isSupported(name string) bool {
	_, err := DecoderFor(name)
	return err == nil
}

// Loader reads local files, local directories and gs:// objects or prefixes.
type Loader struct {
	store   ObjectStore
	workers int
	log     *logger.Logger
}

// NewLoader accepts a nil store when no gs:// input will be used.
func NewLoader(store ObjectStore, workers int, log *logger.Logger) *Loader {
	if workers <= 0 {
		workers = 4
	}
	return &Loader{store: store, workers: workers, log: log}
}

type input struct {
	display string
	bucket  string
	path    string
}

// Load decodes every input on a worker pool and returns the matches in input order.
func (l *Loader) Load(ctx context.Context, inputs []string) ([]staging.RawMatch, error) {
	expanded, err := l.expand(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, errors.New("[source error] no input files found")
	}

	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return nil, errors.Wrap(err, "[source error] unable to create worker pool")
	}
	defer pool.Release()

	results := make([][]staging.RawMatch, len(expanded))
	errs := make([]error, len(expanded))

	var wg sync.WaitGroup
	for i, in := range expanded {
		i, in := i, in
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = l.read(ctx, in)
		}); err != nil {
			wg.Done()
			errs[i] = errors.Wrap(err, "[source error] unable to submit read")
		}
	}
	wg.Wait()

	var matches []staging.RawMatch
	for i, in := range expanded {
		if errs[i] != nil {
			return nil, errors.Wrapf(errs[i], "[source error] unable to load %s", in.display)
		}
		l.log.Debug("input decoded", "input", in.display, "matches", len(results[i]))
		matches = append(matches, results[i]...)
	}
	return matches, nil
}

func (l *Loader) expand(ctx context.Context, inputs []string) ([]input, error) {
	var out []input
	for _, raw := range inputs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if strings.HasPrefix(raw, gcsScheme) {
			if l.store == nil {
				return nil, errors.Errorf("[source error] %s needs a bucket store", raw)
			}
			bucket, object, err := splitGCSURL(raw)
			if err != nil {
				return nil, err
			}
			if object != "" && !strings.HasSuffix(object, "/") {
				out = append(out, input{display: raw, bucket: bucket, path: object})
				continue
			}
			names, err := l.store.List(ctx, bucket, object)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				out = append(out, input{display: gcsScheme + bucket + "/" + name, bucket: bucket, path: name})
			}
			continue
		}

		info, err := os.Stat(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "[source error] unable to stat %s", raw)
		}
		if !info.IsDir() {
			out = append(out, input{display: raw, path: raw})
			continue
		}
		entries, err := os.ReadDir(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "[source error] unable to read directory %s", raw)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && isSupported(e.Name()) {
				names = append(names, filepath.Join(raw, e.Name()))
			}
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, input{display: name, path: name})
		}
	}
	return out, nil
}

func (l *Loader) read(ctx context.Context, in input) ([]staging.RawMatch, error) {
	decode, err := DecoderFor(in.path)
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	if in.bucket != "" {
		rc, err = l.store.Open(ctx, in.bucket, in.path)
	} else {
		rc, err = os.Open(in.path)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return decode(rc)
}

var ErrInputOutsideRoot = errors.New("[source error] input is outside the allowed directory")

// ConfineInputs keeps gs:// inputs as they are and resolves local ones against root. Relative
// paths are taken relative to root; a path that lands outside root after cleaning and symlink
// resolution is refused. An empty root refuses every local input.
func ConfineInputs(inputs []string, root string) ([]string, error) {
	var base string
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, "[source error] unable to resolve %s", root)
		}
		base = resolveLinks(abs)
	}

	out := make([]string, 0, len(inputs))
	for _, raw := range inputs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, gcsScheme) {
			out = append(out, raw)
			continue
		}
		if base == "" {
			return nil, errors.Wrapf(ErrInputOutsideRoot, "%s", raw)
		}

		path := raw
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		path = resolveLinks(filepath.Clean(path))
		rel, err := filepath.Rel(base, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, errors.Wrapf(ErrInputOutsideRoot, "%s", raw)
		}
		out = append(out, path)
	}
	return out, nil
}

func resolveLinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
