package corpus

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gcbaptista/go-lexicon/model"
)

// Provider fetches corpus partitions. Implementations must be safe for
// concurrent use.
type Provider interface {
	// FetchPartition returns the normalized words of one partition.
	FetchPartition(ctx context.Context, id string) ([]model.WordEntry, error)
	// FetchLegacy returns the whole corpus from the legacy single-file
	// format, trying each configured legacy file in order.
	FetchLegacy(ctx context.Context) ([]model.WordEntry, error)
}

// opener returns a reader over the named document.
type opener func(ctx context.Context, name string) (io.ReadCloser, error)

func fetchDocument(ctx context.Context, open opener, name string) ([]model.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	entries, err := DecodePartition(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return entries, nil
}

func fetchFirst(ctx context.Context, open opener, names []string) ([]model.WordEntry, error) {
	if len(names) == 0 {
		return nil, errors.New("no legacy files configured")
	}
	var errs []error
	for _, name := range names {
		entries, err := fetchDocument(ctx, open, name)
		if err == nil {
			return entries, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// DirProvider reads partitions from a directory. For a partition "noun" it
// looks for noun.json, then noun.json.gz, then noun.json.dz (dictzip, which
// any gzip reader can decompress).
type DirProvider struct {
	dir    string
	legacy []string
}

// NewDirProvider creates a provider over dir.
func NewDirProvider(dir string, legacyFiles []string) *DirProvider {
	return &DirProvider{dir: dir, legacy: legacyFiles}
}

func (p *DirProvider) FetchPartition(ctx context.Context, id string) ([]model.WordEntry, error) {
	return fetchDocument(ctx, p.open, id)
}

func (p *DirProvider) FetchLegacy(ctx context.Context) ([]model.WordEntry, error) {
	return fetchFirst(ctx, p.open, p.legacy)
}

func (p *DirProvider) open(_ context.Context, name string) (io.ReadCloser, error) {
	base := filepath.Join(p.dir, name+".json")

	f, err := os.Open(base) // #nosec G304 -- names are validated by the configuration layer
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, ext := range []string{".gz", ".dz"} {
		f, err := os.Open(base + ext) // #nosec G304
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s%s: %w", base, ext, err)
		}
		return &gzipFile{Reader: zr, file: f}, nil
	}

	return nil, fmt.Errorf("partition file %s: %w", base, os.ErrNotExist)
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	return errors.Join(g.Reader.Close(), g.file.Close())
}

// HTTPProvider fetches partitions as <baseURL>/<id>.json.
type HTTPProvider struct {
	baseURL    string
	legacy     []string
	httpClient *http.Client
	log        *slog.Logger
}

// NewHTTPProvider creates a provider rooted at baseURL.
func NewHTTPProvider(baseURL string, legacyFiles []string, timeout time.Duration, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		legacy:     legacyFiles,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "http_corpus"),
	}
}

func (p *HTTPProvider) FetchPartition(ctx context.Context, id string) ([]model.WordEntry, error) {
	return fetchDocument(ctx, p.open, id)
}

func (p *HTTPProvider) FetchLegacy(ctx context.Context) ([]model.WordEntry, error) {
	return fetchFirst(ctx, p.open, p.legacy)
}

func (p *HTTPProvider) open(ctx context.Context, name string) (io.ReadCloser, error) {
	reqURL := p.baseURL + "/" + url.PathEscape(name) + ".json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", reqURL, err)
	}

	p.log.DebugContext(ctx, "corpus response",
		slog.String("url", reqURL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", reqURL, resp.StatusCode)
	}
	return resp.Body, nil
}
