package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/japaniel/dictkit/pkg/db"
	"github.com/japaniel/dictkit/pkg/freq"
	"github.com/japaniel/dictkit/pkg/rank"
)

var (
	rankSource   string
	rankOutput   string
	rankLanguage string
	rankList     string
	rankDB       string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Sort dictionary words by frequency and write the word list",
	Long: `Reads the <word>.json entries of the dictionary directory, scores every
word with the frequency store (or a frequency list given with --list) and
writes the words, most frequent first, one per line.

The output file is replaced atomically; on any error it is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankSource, "source", "s", "", "Dictionary directory (default from config)")
	rankCmd.Flags().StringVarP(&rankOutput, "output", "o", "", "Output word list (default from config)")
	rankCmd.Flags().StringVarP(&rankLanguage, "language", "l", "", "Frequency language (default from config)")
	rankCmd.Flags().StringVar(&rankList, "list", "", "Score with this frequency list file instead of the store")
	rankCmd.Flags().StringVar(&rankDB, "db", "", "Frequency store database (default from config)")
}

func runRank(cmd *cobra.Command, args []string) error {
	source := pick(rankSource, cfg.DictionaryDir)
	output := pick(rankOutput, cfg.Rank.Output)
	language := pick(rankLanguage, cfg.Language)

	oracle, closeFn, err := openOracle(language, rankList, pick(rankDB, cfg.Database))
	if err != nil {
		return err
	}
	defer closeFn()

	r := rank.NewRanker(oracle)
	r.Language = language
	r.Logger = logger
	r.OnScanned = func(n int) {
		fmt.Printf("Found %d words in %s.\n", n, source)
		fmt.Println("Sorting by frequency...")
	}

	words, err := r.RankToFile(source, output)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d ranked words to %s.\n", len(words), output)
	return nil
}

// openOracle builds the tokenizing oracle over either a frequency list file
// or the SQLite store.
func openOracle(language, listPath, dbPath string) (freq.Oracle, func(), error) {
	var (
		base    freq.Oracle
		closeFn = func() {}
	)
	if listPath != "" {
		f, err := os.Open(listPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open frequency list: %w", err)
		}
		counts, err := freq.LoadList(f)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read frequency list %s: %w", listPath, err)
		}
		base = freq.TableFromCounts(language, counts)
	} else {
		conn, err := db.Open(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open frequency store: %w", err)
		}
		base = freq.NewStoreOracle(conn)
		closeFn = func() { conn.Close() }
	}

	tokenizers, err := freq.DefaultTokenizers(language == "ja")
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &freq.TokenizingOracle{Base: base, Tokenizers: tokenizers}, closeFn, nil
}
