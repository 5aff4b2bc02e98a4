// Package fetch acquires institution videos: downloading the URLs listed
// in a scan sheet and discovering candidate video URLs on institution
// homepages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"scenecode/internal/config"
	"scenecode/internal/logging"
	"scenecode/internal/services"
	"scenecode/internal/sheet"
)

// Fetcher downloads scan-sheet videos into the results tree.
type Fetcher struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher wires a fetcher from the download settings.
func NewFetcher(cfg *config.Config, logger *slog.Logger, opts ...Option) *Fetcher {
	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	f := &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Summary reports what one fetch pass did.
type Summary struct {
	Rows        int
	Downloaded  int
	SkippedRows int
	Existing    int
	Failed      int
}

// Run downloads every eligible scan-sheet row: primary .edu sites with a
// non-empty video source. One failed download never aborts the batch; the
// row is logged and counted.
func (f *Fetcher) Run(ctx context.Context, sheetPath string) (Summary, error) {
	var sum Summary

	table, err := sheet.ReadTable(sheetPath)
	if err != nil {
		return sum, err
	}
	schema := sheet.NewSchema(f.cfg.Sheet.Aliases)
	mapping, err := schema.Detect(table.Headers, sheet.FieldDomain, sheet.FieldVideoURL)
	if err != nil {
		return sum, err
	}
	if !mapping.Has(sheet.FieldPrimary) {
		f.logger.Warn("scan sheet has no primary-site column; treating every row as primary")
	}
	rows, dropped := sheet.ParseScanRows(table, mapping)
	for _, rowNum := range dropped {
		f.logger.Warn("dropping scan row without institution", logging.Int("row", rowNum))
	}
	sum.Rows = len(rows)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		domain := sheet.ParseDomain(row.Institution)
		switch {
		case !row.Primary:
			f.logger.Info("skipping non-primary site", logging.String(logging.FieldInstitution, domain))
			sum.SkippedRows++
			continue
		case !strings.HasSuffix(domain, ".edu"):
			f.logger.Info("skipping non-.edu site", logging.String(logging.FieldInstitution, domain))
			sum.SkippedRows++
			continue
		case strings.TrimSpace(row.VideoURL) == "":
			f.logger.Info("skipping row without video source", logging.String(logging.FieldInstitution, domain))
			sum.SkippedRows++
			continue
		}

		dest, err := f.destinationPath(domain, row.VideoURL)
		if err != nil {
			f.logger.Warn("unusable video URL",
				logging.String(logging.FieldInstitution, domain),
				logging.String("url", row.VideoURL),
				logging.Error(err))
			sum.Failed++
			continue
		}
		if _, err := os.Stat(dest); err == nil {
			f.logger.Info("video already downloaded", logging.String("path", dest))
			sum.Existing++
			continue
		}

		if err := f.download(ctx, row.VideoURL, dest); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			f.logger.Warn("download failed",
				logging.String(logging.FieldInstitution, domain),
				logging.String("url", row.VideoURL),
				logging.Error(err))
			sum.Failed++
			continue
		}
		f.logger.Info("downloaded video",
			logging.String(logging.FieldInstitution, domain),
			logging.String("path", dest))
		sum.Downloaded++
	}
	return sum, nil
}

// destinationPath derives the institution folder from the domain and the
// file name from the URL path basename.
func (f *Fetcher) destinationPath(domain, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", services.Wrap(services.ErrMalformedInput, "fetch", "parse url", rawURL, err)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		name = "video.mp4"
	}
	return filepath.Join(f.cfg.InstitutionDir(domain), name), nil
}

// download streams the URL into a .part file that is renamed into place
// only on success, so an interrupted transfer never masquerades as a
// finished video.
func (f *Fetcher) download(ctx context.Context, rawURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "download", "create institution dir", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return services.Wrap(services.ErrMalformedInput, "fetch", "download", "build request", err)
	}
	req.Header.Set("User-Agent", f.cfg.Fetch.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrRemoteService, "fetch", "download", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("%s returned %s", rawURL, resp.Status)
		return services.Wrap(services.ErrRemoteService, "fetch", "download", detail, nil)
	}

	part := dest + ".part"
	file, err := os.Create(part)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "download", "create "+part, err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(part)
		return services.Wrap(services.ErrRemoteService, "fetch", "download", "stream "+rawURL, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(part)
		return services.Wrap(services.ErrConfiguration, "fetch", "download", "close "+part, err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return services.Wrap(services.ErrConfiguration, "fetch", "download", "finalize "+dest, err)
	}
	return nil
}
