// Package wordfreq builds per-language word lists from the wordfreq
// dataset published on PyPI.
package wordfreq

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/verte-zerg/keysprint/internal/wordlist"
)

const (
	// DefaultIndexURL is the PyPI metadata endpoint for the wordfreq package.
	DefaultIndexURL = "https://pypi.org/pypi/wordfreq/json"

	dataPrefix     = "wordfreq/data/"
	minWordRunes   = 2
	maxWordRunes   = 20
	requestTimeout = 60 * time.Second
)

// List sizes published per language. Large lists are preferred.
const (
	Large = "large"
	Small = "small"
)

// Wheel is a downloaded wordfreq wheel.
type Wheel struct {
	Version string
	Path    string
	Cached  bool
}

// Fetcher downloads wordfreq wheels into a cache directory.
type Fetcher struct {
	cacheDir string
	indexURL string
	client   *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithIndexURL points the fetcher at another package index.
func WithIndexURL(url string) Option {
	return func(f *Fetcher) {
		f.indexURL = url
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher returns a fetcher caching wheels under cacheDir.
func NewFetcher(cacheDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		cacheDir: cacheDir,
		indexURL: DefaultIndexURL,
		client:   &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type release struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []releaseFile `json:"urls"`
}

type releaseFile struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	PackageType string `json:"packagetype"`
}

// Latest returns the newest wheel, downloading it unless it is cached.
func (f *Fetcher) Latest(ctx context.Context) (Wheel, error) {
	if f.cacheDir == "" {
		return Wheel{}, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return Wheel{}, fmt.Errorf("failed to create cache dir: %w", err)
	}

	var rel release
	if err := f.getJSON(ctx, f.indexURL, &rel); err != nil {
		return Wheel{}, err
	}
	if rel.Info.Version == "" {
		return Wheel{}, fmt.Errorf("index response has no version")
	}
	file, ok := pickWheel(rel.URLs)
	if !ok {
		return Wheel{}, fmt.Errorf("no wheel published for wordfreq %s", rel.Info.Version)
	}

	dest := filepath.Join(f.cacheDir, filepath.Base(file.Filename))
	if _, err := os.Stat(dest); err == nil {
		return Wheel{Version: rel.Info.Version, Path: dest, Cached: true}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Wheel{}, fmt.Errorf("failed to stat cached wheel: %w", err)
	}
	if err := f.download(ctx, file.URL, dest); err != nil {
		return Wheel{}, err
	}
	return Wheel{Version: rel.Info.Version, Path: dest}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return resp, nil
}

func (f *Fetcher) getJSON(ctx context.Context, url string, v any) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode index response: %w", err)
	}
	return nil
}

// download writes url to dest through a temp file so a partial download is
// never mistaken for a cached wheel.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "wordfreq-*.whl")
	if err != nil {
		return fmt.Errorf("failed to create temp wheel: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("failed to download wheel: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp wheel: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to move wheel into cache: %w", err)
	}
	return nil
}

// pickWheel prefers the pure-python wheel over any other build.
func pickWheel(files []releaseFile) (releaseFile, bool) {
	var fallback *releaseFile
	for i, file := range files {
		if file.PackageType != "bdist_wheel" {
			continue
		}
		if strings.HasSuffix(file.Filename, "py3-none-any.whl") {
			return file, true
		}
		if fallback == nil {
			fallback = &files[i]
		}
	}
	if fallback == nil {
		return releaseFile{}, false
	}
	return *fallback, true
}

// Archive reads word data out of a wheel.
type Archive struct {
	zr    *zip.ReadCloser
	lists map[string]map[string]*zip.File
}

// OpenArchive opens the wheel at path and indexes its word lists.
func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("wheel path is required")
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	a := &Archive{zr: zr, lists: make(map[string]map[string]*zip.File)}
	for _, file := range zr.File {
		lang, size := parseDataName(file.Name)
		if lang == "" {
			continue
		}
		if a.lists[lang] == nil {
			a.lists[lang] = make(map[string]*zip.File)
		}
		a.lists[lang][size] = file
	}
	if len(a.lists) == 0 {
		_ = zr.Close()
		return nil, fmt.Errorf("no word lists found in %s", filepath.Base(path))
	}
	return a, nil
}

// Close releases the wheel.
func (a *Archive) Close() error {
	return a.zr.Close()
}

// Languages returns the sorted language codes in the wheel.
func (a *Archive) Languages() []string {
	out := make([]string, 0, len(a.lists))
	for lang := range a.lists {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Words returns up to limit of the most frequent words for lang, using the
// large list when one exists. Words failing the language filter, repeats and
// words outside 2..20 letters are skipped.
func (a *Archive) Words(lang string, limit int) ([]string, string, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("limit must be greater than 0")
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	sizes, ok := a.lists[lang]
	if !ok {
		return nil, "", fmt.Errorf("no word list for %q", lang)
	}
	size := Large
	file, ok := sizes[Large]
	if !ok {
		size = Small
		if file, ok = sizes[Small]; !ok {
			return nil, "", fmt.Errorf("no word list for %q", lang)
		}
	}

	ranked, err := readRanked(file)
	if err != nil {
		return nil, "", err
	}
	keep := wordlist.FilterForLang(lang)
	seen := make(map[string]struct{})
	words := make([]string, 0, limit)
	for _, word := range ranked {
		n := utf8.RuneCountInString(word)
		if n < minWordRunes || n > maxWordRunes || !keep(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
		if len(words) == limit {
			break
		}
	}
	if len(words) == 0 {
		return nil, "", fmt.Errorf("no usable words in %s list for %q", size, lang)
	}
	return words, size, nil
}

// License returns the package license text shipped in the wheel.
func (a *Archive) License() ([]byte, error) {
	for _, file := range a.zr.File {
		if !strings.Contains(strings.ToLower(file.Name), "license") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open license: %w", err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read license: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("license file not found in wheel")
}

// parseDataName maps "wordfreq/data/large_pt-br.msgpack.gz" to
// ("pt-br", "large"). Other files return an empty language.
func parseDataName(name string) (string, string) {
	name = strings.ToLower(name)
	if !strings.HasPrefix(name, dataPrefix) {
		return "", ""
	}
	base := strings.TrimPrefix(name, dataPrefix)
	base = strings.TrimSuffix(base, ".gz")
	if !strings.HasSuffix(base, ".msgpack") {
		return "", ""
	}
	base = strings.TrimSuffix(base, ".msgpack")
	for _, size := range []string{Large, Small} {
		if lang, ok := strings.CutPrefix(base, size+"_"); ok && lang != "" {
			return lang, size
		}
	}
	return "", ""
}

// readRanked decodes a frequency list. The payload is a msgpack array whose
// leading maps are headers and whose remaining elements are bins of words,
// most frequent bin first.
func readRanked(file *zip.File) ([]string, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	var r io.Reader = rc
	if strings.HasSuffix(strings.ToLower(file.Name), ".gz") {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer func() {
			_ = gz.Close()
		}()
		r = gz
	}

	var root []any
	if err := msgpack.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file.Name, err)
	}
	var words []string
	for _, item := range root {
		bin, ok := item.([]any)
		if !ok {
			continue
		}
		for _, w := range bin {
			switch v := w.(type) {
			case string:
				words = append(words, v)
			case []byte:
				if utf8.Valid(v) {
					words = append(words, string(v))
				}
			}
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%s contains no words", file.Name)
	}
	return words, nil
}

// Notice files written next to generated lists.
const (
	AttributionFile = "ATTRIBUTION.txt"
	LicenseFile     = "LICENSE.txt"
	DataLicenseFile = "DATA_LICENSE.txt"
)

// IsNoticeFile reports whether name is one of the notice files.
func IsNoticeFile(name string) bool {
	switch name {
	case AttributionFile, LicenseFile, DataLicenseFile:
		return true
	}
	return false
}

// WriteNotices writes the attribution and license files the dataset asks
// redistributors to carry.
func WriteNotices(dir string, license []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	attribution := strings.Join([]string{
		"Word lists generated from the wordfreq dataset.",
		"Source: https://github.com/rspeer/wordfreq",
		"Data license: CC BY-SA 4.0, https://creativecommons.org/licenses/by-sa/4.0/",
		"Changes: filtered to alphabetic words and truncated to the requested size.",
		"",
	}, "\n")
	files := map[string][]byte{
		AttributionFile: []byte(attribution),
		LicenseFile:     license,
		DataLicenseFile: []byte("This word list is licensed under CC BY-SA 4.0.\nhttps://creativecommons.org/licenses/by-sa/4.0/\n"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
