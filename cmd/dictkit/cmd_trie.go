package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/dictkit/pkg/trie"
)

var (
	trieInput  string
	trieOutput string
	trieFile   string
	trieLimit  int
)

var trieCmd = &cobra.Command{
	Use:   "trie",
	Short: "Build and query the binary autocomplete trie",
}

var trieBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Encode the ranked word list as a packed trie",
	Args:  cobra.NoArgs,
	RunE:  runTrieBuild,
}

var trieSuggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "Print the best completions for prefix from a built trie",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrieSuggest,
}

func init() {
	trieBuildCmd.Flags().StringVarP(&trieInput, "input", "i", "", "Ranked word list (default from config)")
	trieBuildCmd.Flags().StringVarP(&trieOutput, "output", "o", "", "Trie file to write (default from config)")

	trieSuggestCmd.Flags().StringVar(&trieFile, "trie", "", "Trie file (default from config)")
	trieSuggestCmd.Flags().IntVarP(&trieLimit, "limit", "n", trie.DefaultSuggestionLimit, "Maximum number of suggestions")

	trieCmd.AddCommand(trieBuildCmd, trieSuggestCmd)
}

func runTrieBuild(cmd *cobra.Command, args []string) error {
	input := pick(trieInput, cfg.Trie.Input)
	output := pick(trieOutput, cfg.Trie.Output)

	fmt.Printf("Reading word list from %s...\n", input)
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open word list: %w", err)
	}
	words, err := trie.ReadWordList(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read word list: %w", err)
	}
	fmt.Printf("Loaded %d valid words.\n", len(words))

	data, stats, err := trie.Build(words).Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write trie: %w", err)
	}

	fmt.Printf("Trie built at %s (%.2f KB)\n", output, float64(stats.TotalBytes)/1024)
	fmt.Printf("   - Nodes: %d\n", stats.Nodes)
	fmt.Printf("   - Structure: %.2f KB\n", float64(stats.StructureBytes)/1024)
	fmt.Printf("   - Pointers: %.2f KB\n", float64(stats.PointerBytes)/1024)
	fmt.Printf("   - Ranks: %.2f KB\n", float64(stats.RankBytes)/1024)
	logger.Debug("trie written", zap.String("path", output), zap.Int("nodes", stats.Nodes))
	return nil
}

func runTrieSuggest(cmd *cobra.Command, args []string) error {
	path := pick(trieFile, cfg.Trie.Output)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read trie: %w", err)
	}
	t, err := trie.Decode(data)
	if err != nil {
		return err
	}
	for _, w := range t.Suggest(args[0], trieLimit) {
		fmt.Println(w)
	}
	return nil
}
