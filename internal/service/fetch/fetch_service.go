package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	FormatCSV = "csv"
	FormatZIP = "zip"
)

// Resource is one downloadable file linked from a dataset page.
type Resource struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

type Options struct {
	Client     *http.Client
	RetryDelay time.Duration
	MaxRetries uint64
	// Parallel bounds concurrent downloads in DownloadAll.
	Parallel int
}

type Service struct {
	client *http.Client
	opts   Options
}

func NewFetchService(opts Options) *Service {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Minute}
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 2
	}
	return &Service{client: opts.Client, opts: opts}
}

// ListResources scrapes a CKAN dataset page (OpenDataSUS) and returns its CSV
// and ZIP links as absolute URLs, in page order and without duplicates.
func (s *Service) ListResources(ctx context.Context, pageURL string) ([]Resource, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	resp, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset page: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	resources := make([]Resource, 0, 8)
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, parseErr := url.Parse(strings.TrimSpace(href))
		if parseErr != nil {
			return
		}
		abs := base.ResolveReference(ref)

		format := formatOf(abs.Path)
		if format == "" {
			return
		}
		if _, dup := seen[abs.String()]; dup {
			return
		}
		seen[abs.String()] = struct{}{}

		name := resourceName(a)
		if name == "" {
			name = path.Base(abs.Path)
		}
		resources = append(resources, Resource{Name: name, URL: abs.String(), Format: format})
	})

	logger.Infof(ctx, "found %d resources on %s", len(resources), pageURL)
	return resources, nil
}

// resourceName prefers the title of the enclosing CKAN resource item.
func resourceName(a *goquery.Selection) string {
	item := a.Closest("li.resource-item")
	if item.Length() > 0 {
		if title, ok := item.Find("a.heading").Attr("title"); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
	}
	if title, ok := a.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.Join(strings.Fields(a.Text()), " ")
}

func formatOf(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV
	case ".zip":
		return FormatZIP
	default:
		return ""
	}
}

// Download stores the resource under dir and returns the written path. ZIP
// archives are unpacked and the path of the first CSV inside is returned.
func (s *Service) Download(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	dst := filepath.Join(dir, path.Base(u.Path))
	if err = s.downloadTo(ctx, rawURL, dst); err != nil {
		return "", err
	}
	logger.Infof(ctx, "downloaded %s to %s", rawURL, dst)

	if formatOf(u.Path) != FormatZIP {
		return dst, nil
	}

	files, err := unzipCSV(dst, dir)
	if err != nil {
		return "", fmt.Errorf("unzip %s: %w", dst, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no csv inside %s", dst)
	}
	return files[0], nil
}

// DownloadAll fetches the resources concurrently, at most Options.Parallel at a time.
func (s *Service) DownloadAll(ctx context.Context, resources []Resource, dir string) ([]string, error) {
	paths := make([]string, len(resources))
	mx := sync.Mutex{}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Parallel)
	for i, res := range resources {
		i, res := i, res
		eg.Go(func() error {
			p, err := s.Download(egCtx, res.URL, dir)
			if err != nil {
				return fmt.Errorf("download %s: %w", res.Name, err)
			}
			mx.Lock()
			defer mx.Unlock()
			paths[i] = p
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("err in goroutine: %w", err)
	}
	return paths, nil
}

func (s *Service) downloadTo(ctx context.Context, rawURL, dst string) (err error) {
	resp, err := s.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close reader: %w", closeErr)
		}
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy body: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), dst)
}

// get retries transport failures and 5xx answers with a constant delay; any
// other non-200 status is final.
func (s *Service) get(ctx context.Context, rawURL string) (*http.Response, error) {
	var resp *http.Response
	err := backoff.Retry(
		func() error {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if reqErr != nil {
				return backoff.Permanent(reqErr)
			}

			var httpErr error
			resp, httpErr = s.client.Do(req)
			if httpErr != nil {
				logger.Warnf(ctx, "GET %s: %s", rawURL, httpErr.Error())
				return fmt.Errorf("http.Do: %w", httpErr)
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}

			_ = resp.Body.Close()
			statusErr := fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
				logger.Warnf(ctx, "GET %s: %s", rawURL, statusErr.Error())
				return statusErr
			}
			return backoff.Permanent(statusErr)
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.RetryDelay), s.opts.MaxRetries),
			ctx,
		),
	)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func unzipCSV(archive, dir string) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = zr.Close()
	}()

	var out []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || formatOf(f.Name) != FormatCSV {
			continue
		}
		// только базовое имя: пути внутри архива не должны выходить за dir
		dst := filepath.Join(dir, filepath.Base(f.Name))
		if err = extract(f, dst); err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		out = append(out, dst)
	}

	return out, nil
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, rc); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
