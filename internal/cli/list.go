package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docsearch/config"
	"docsearch/internal/adapter/cache"
	"docsearch/internal/adapter/store"
	"docsearch/internal/usecase"
)

var (
	listJSON  bool
	listPrune bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached document builds",
	Long: `List every document recorded in the catalog with its size, embedding model
and whether it was built with the current settings. With --prune, stale
builds are deleted from the cache and the catalog first.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.Flags().BoolVar(&listPrune, "prune", false, "delete builds made with other settings")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	dbPath := config.CatalogPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no catalog found. Run 'docsearch index' first")
	}
	catalog, err := store.OpenCatalog(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer catalog.Close()

	current, err := store.Fingerprint(cfg)
	if err != nil {
		return err
	}

	if listPrune {
		compression, err := cache.ParseCompression(cfg.Cache.Compression)
		if err != nil {
			return err
		}
		files := cache.NewFileStore(cfg.CacheDir(GetRootDir()), compression, GetLogger())
		removed, err := usecase.NewPruneUseCase(files, catalog, GetLogger()).Prune(current)
		if err != nil {
			return err
		}
		if !listJSON {
			fmt.Printf("Pruned %d stale builds\n", len(removed))
		}
	}

	entries, err := catalog.List()
	if err != nil {
		return err
	}

	if listJSON {
		output, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("No cached documents.")
		return nil
	}

	for _, e := range entries {
		state := "current"
		if e.Fingerprint != current {
			state = "stale"
		}
		fmt.Printf("%-24s %4d pages %6d sentences  %s/%d  %s  %s\n",
			e.Key, e.Pages, e.Sentences, e.Model, e.Dimension,
			e.BuiltAt.Local().Format("2006-01-02 15:04"), state)
		fmt.Printf("  %s\n", locationStyle.Render(e.Path))
	}
	return nil
}
