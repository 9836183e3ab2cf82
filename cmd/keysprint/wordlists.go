package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keysprint/internal/config"
	"github.com/verte-zerg/keysprint/internal/wordfreq"
)

const defaultWordListSize = 5000

type wordListOptions struct {
	lang  string
	size  int
	force bool
}

func newWordlistCmd() *cobra.Command {
	opts := &wordListOptions{}
	cmd := &cobra.Command{
		Use:   "wordlist",
		Short: "Download word lists from the wordfreq dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetcher := wordfreq.NewFetcher(config.DefaultWordfreqCacheDir())
			return generateWordLists(cmd.Context(), cmd.ErrOrStderr(), fetcher, config.DefaultWordListDir(), *opts)
		},
	}
	cmd.Flags().StringVar(&opts.lang, "lang", "", "language codes separated by commas, or 'all' (default: en)")
	cmd.Flags().IntVar(&opts.size, "size", defaultWordListSize, "number of words per list")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite existing lists")
	return cmd
}

// generateWordLists writes one list per requested language into dir, along
// with the dataset notices. Progress goes to progress.
func generateWordLists(ctx context.Context, progress io.Writer, fetcher *wordfreq.Fetcher, dir string, opts wordListOptions) error {
	if opts.size <= 0 {
		return fmt.Errorf("--size must be greater than 0")
	}
	say := func(format string, args ...any) {
		_, _ = fmt.Fprintf(progress, format, args...)
	}

	say("Fetching wordfreq metadata...\n")
	wheel, err := fetcher.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to download wordfreq wheel: %w", err)
	}
	if wheel.Cached {
		say("Using cached wordfreq %s\n", wheel.Version)
	} else {
		say("Downloaded wordfreq %s\n", wheel.Version)
	}
	archive, err := wordfreq.OpenArchive(wheel.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = archive.Close()
	}()

	langs, all, err := resolveWordListLangs(opts.lang, archive.Languages())
	if err != nil {
		return err
	}
	for _, lang := range langs {
		path := filepath.Join(dir, lang+".txt")
		if !opts.force {
			if _, err := os.Stat(path); err == nil {
				if all {
					say("Keeping existing %s\n", path)
					continue
				}
				return fmt.Errorf("word list already exists: %s (use --force to overwrite)", path)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to stat word list: %w", err)
			}
		}
		words, size, err := archive.Words(lang, opts.size)
		if err != nil {
			if all {
				say("Skipping %s: %v\n", lang, err)
				continue
			}
			return fmt.Errorf("failed to extract %s word list: %w", lang, err)
		}
		if size != wordfreq.Large {
			say("Using the %s list for %s\n", size, lang)
		}
		if err := writeWordList(path, words); err != nil {
			return err
		}
		say("Wrote %s (%d words)\n", path, len(words))
	}

	license, err := archive.License()
	if err != nil {
		return err
	}
	if err := wordfreq.WriteNotices(dir, license); err != nil {
		return err
	}
	say("Wrote %s, %s and %s\n", wordfreq.AttributionFile, wordfreq.LicenseFile, wordfreq.DataLicenseFile)
	return nil
}

// resolveWordListLangs expands the --lang value against the languages in the
// dataset. The bool reports whether every language was requested.
func resolveWordListLangs(value string, available []string) ([]string, bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "":
		value = "en"
	case "all":
		return append([]string(nil), available...), true, nil
	}
	known := make(map[string]struct{}, len(available))
	for _, lang := range available {
		known[lang] = struct{}{}
	}
	var langs []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := known[part]; !ok {
			return nil, false, fmt.Errorf("unknown language %q (available: %s)", part, strings.Join(available, ", "))
		}
		langs = append(langs, part)
	}
	if len(langs) == 0 {
		return nil, false, fmt.Errorf("--lang must not be empty")
	}
	return langs, false, nil
}

func writeWordList(path string, words []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create word list dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "wordlist-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp word list: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	w := bufio.NewWriter(tmp)
	for _, word := range words {
		if _, err := fmt.Fprintln(w, word); err != nil {
			return fmt.Errorf("failed to write word list: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush word list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close word list: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write word list: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List downloaded word list languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listLangs(cmd.OutOrStdout(), config.DefaultWordListDir())
		},
	}
}

func listLangs(out io.Writer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read word list directory: %w", err)
	}
	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") || wordfreq.IsNoticeFile(name) {
			continue
		}
		langs = append(langs, strings.TrimSuffix(name, ".txt"))
	}
	if len(langs) == 0 {
		return fmt.Errorf("no word lists found; download one with: keysprint wordlist --lang <code>")
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if _, err := fmt.Fprintln(out, lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
