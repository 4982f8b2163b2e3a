package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"docsearch/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	rankStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	locationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sentenceStyle = lipgloss.NewStyle().PaddingLeft(4)
)

var queryCmd = &cobra.Command{
	Use:   "query <document>",
	Short: "Find the sentences nearest to a query",
	Long: `Load a document (from cache when possible), embed the query and print the
nearest sentences with the pages they appear on.

Examples:
  docsearch query books/astronomy.pdf -q "how far away are the stars"
  docsearch query books/astronomy.pdf -q "planet formation" -k 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	topK := cfg.Search.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

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

	results, err := search.Search(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("Found %d results for: %s", len(results), queryText)))
	fmt.Println()
	for i, r := range results {
		fmt.Println(renderResult(i+1, r))
	}
	return nil
}

func renderResult(rank int, r domain.SearchResult) string {
	var b strings.Builder
	b.WriteString(rankStyle.Render(fmt.Sprintf("[%d]", rank)))
	b.WriteString(" ")
	// Pages are numbered from 1 for people.
	b.WriteString(locationStyle.Render(fmt.Sprintf("page %d, sentence %d (distance %.4f)", r.PageIndex+1, r.SentenceIndex, r.Distance)))
	b.WriteString("\n")

	b.WriteString(sentenceStyle.Render(truncate(r.Text, 500)))
	b.WriteString("\n")
	return b.String()
}

// truncate shortens s to at most n characters, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
