package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docsearch/internal/adapter/fs"
)

var (
	indexNoCacheRead  bool
	indexNoCacheWrite bool
	indexSkipChars    int
)

var indexCmd = &cobra.Command{
	Use:   "index <path|glob>...",
	Short: "Embed documents and cache the results",
	Long: `Extract, segment and embed every matching document, writing the sentence
records and page texts to the cache so later queries start instantly.

Directories are walked with the configured include/exclude patterns; other
arguments may be files or doublestar globs.

Examples:
  docsearch index books/
  docsearch index "books/**/*.pdf" --skip-chars 40
  docsearch index notes.txt --no-cache-read`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexNoCacheRead, "no-cache-read", false, "rebuild even when a cache exists")
	indexCmd.Flags().BoolVar(&indexNoCacheWrite, "no-cache-write", false, "do not write cache artifacts")
	indexCmd.Flags().IntVar(&indexSkipChars, "skip-chars", -1, "characters to drop from the start of each page (default from config)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if indexSkipChars >= 0 {
		cfg.Ingest.SkipChars = indexSkipChars
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Resolve(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found")
	}

	a, err := NewApp(cfg, GetRootDir(), GetLogger(), cfg.Cache.Read && !indexNoCacheRead, cfg.Cache.Write && !indexNoCacheWrite)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		sentences, cached, failed int
		start                     = time.Now()
	)
	for i, f := range files {
		fmt.Printf("[%d/%d] %s\n", i+1, len(files), f.Path)

		bar := newStageBar()
		result, err := a.Ingest().Ingest(cmd.Context(), f.Path, bar.update)
		bar.finish()
		if err != nil {
			GetLogger().Error("ingestion failed", "path", f.Path, "error", err)
			failed++
			continue
		}

		sentences += len(result.Records)
		status := "built"
		if result.CacheHit {
			status = "cached"
			cached++
		} else if result.Rebuilt {
			status = "rebuilt"
		}
		fmt.Printf("  %s: %d pages, %d sentences (%s)\n", status, len(result.Pages), len(result.Records), formatDuration(result.Duration))
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Documents:  %d\n", len(files))
	fmt.Printf("  From cache: %d\n", cached)
	fmt.Printf("  Failed:     %d\n", failed)
	fmt.Printf("  Sentences:  %d\n", sentences)
	fmt.Printf("  Time:       %s\n", formatDuration(time.Since(start)))

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

// stageBar shows one progress bar per pipeline stage.
type stageBar struct {
	bar   *progressbar.ProgressBar
	stage string
}

func newStageBar() *stageBar {
	return &stageBar{}
}

func (b *stageBar) update(stage string, done, total int) {
	if stage != b.stage {
		b.finish()
		b.stage = stage
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription(fmt.Sprintf("  [cyan]%-8s[reset]", stage)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	b.bar.Set(done)
}

func (b *stageBar) finish() {
	if b.bar != nil {
		b.bar.Finish()
		fmt.Println()
		b.bar = nil
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
