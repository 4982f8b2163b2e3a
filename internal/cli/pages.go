package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	pagesNumber int
	pagesJSON   bool
)

var pagesCmd = &cobra.Command{
	Use:   "pages <document>",
	Short: "Print the extracted text of a document's pages",
	Long: `Print page text as it was extracted and cached, for display next to search
results. Pages are numbered from 1.

Examples:
  docsearch pages books/astronomy.pdf --page 12
  docsearch pages books/astronomy.pdf --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	pagesCmd.Flags().IntVarP(&pagesNumber, "page", "p", 0, "page to print (default all)")
	pagesCmd.Flags().BoolVar(&pagesJSON, "json", false, "output as JSON")
}

func runPages(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := NewApp(cfg, GetRootDir(), GetLogger(), cfg.Cache.Read, cfg.Cache.Write)
	if err != nil {
		return err
	}
	defer a.Close()

	ingested, err := a.Ingest().Ingest(cmd.Context(), args[0], nil)
	if err != nil {
		return err
	}
	search, err := a.NewSearch()
	if err != nil {
		return err
	}
	if err := search.Load(ingested.Records, ingested.Pages); err != nil {
		return err
	}

	pages := search.Pages()
	if pagesNumber > 0 {
		page, err := search.Page(pagesNumber - 1)
		if err != nil {
			return fmt.Errorf("document has %d pages: %w", len(pages), err)
		}
		pages = pages[:0]
		pages = append(pages, page)
	}

	if pagesJSON {
		out := make(map[int]string, len(pages))
		for _, p := range pages {
			out[p.Index+1] = p.Text
		}
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, p := range pages {
		fmt.Println(headerStyle.Render(fmt.Sprintf("--- page %d ---", p.Index+1)))
		fmt.Println(p.Text)
		fmt.Println()
	}
	return nil
}
