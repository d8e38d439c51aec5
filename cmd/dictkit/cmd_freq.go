package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/japaniel/dictkit/pkg/corpus"
	"github.com/japaniel/dictkit/pkg/db"
	"github.com/japaniel/dictkit/pkg/freq"
)

var (
	freqLanguage string
	freqDB       string

	fetchURL  string
	fetchPath string

	buildWorkers   int
	buildBatchSize int

	topLimit int
)

var freqCmd = &cobra.Command{
	Use:   "freq",
	Short: "Manage the word frequency store used for ranking",
}

var freqImportCmd = &cobra.Command{
	Use:   "import <list-file>",
	Short: "Replace a language's counts with a \"word count\" frequency list",
	Args:  cobra.ExactArgs(1),
	RunE:  runFreqImport,
}

var freqFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the FrequencyWords list for the language (if missing) and import it",
	Args:  cobra.NoArgs,
	RunE:  runFreqFetch,
}

var freqBuildCmd = &cobra.Command{
	Use:   "build <path-or-url>...",
	Short: "Add word counts from HTML/text documents, directories or web pages",
	Long: `Extracts the text of every document (HTML through readability, ruby
annotations removed; plain .txt/.md as is), tokenizes it and adds the counts
to the store. Documents already counted are recognised by checksum and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFreqBuild,
}

var freqLookupCmd = &cobra.Command{
	Use:   "lookup <word>...",
	Short: "Print the frequency the ranker would use for each word",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFreqLookup,
}

var freqSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the documents counted into the store",
	Args:  cobra.NoArgs,
	RunE:  runFreqSources,
}

var freqTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the most frequent stored words",
	Args:  cobra.NoArgs,
	RunE:  runFreqTop,
}

func init() {
	freqCmd.PersistentFlags().StringVarP(&freqLanguage, "language", "l", "", "Language code (default from config)")
	freqCmd.PersistentFlags().StringVar(&freqDB, "db", "", "Frequency store database (default from config)")

	freqFetchCmd.Flags().StringVar(&fetchURL, "url", "", "List URL (default: FrequencyWords 2018 50k list)")
	freqFetchCmd.Flags().StringVar(&fetchPath, "list", "", "Local cache path (default: <lang>_50k.txt)")

	freqBuildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "Parallel extraction workers (default from config)")
	freqBuildCmd.Flags().IntVar(&buildBatchSize, "batch-size", 0, "Documents per database transaction (default from config)")

	freqTopCmd.Flags().IntVarP(&topLimit, "limit", "n", 20, "Number of words to print")

	freqCmd.AddCommand(freqImportCmd, freqFetchCmd, freqBuildCmd, freqLookupCmd, freqTopCmd, freqSourcesCmd)
}

func freqLang() string { return pick(freqLanguage, cfg.Language) }

func runFreqImport(cmd *cobra.Command, args []string) error {
	return importList(args[0])
}

func importList(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open frequency list: %w", err)
	}
	defer f.Close()
	counts, err := freq.LoadList(f)
	if err != nil {
		return fmt.Errorf("read frequency list %s: %w", path, err)
	}

	dbPath := pick(freqDB, cfg.Database)
	conn, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open frequency store: %w", err)
	}
	defer conn.Close()

	language := freqLang()
	n, err := freq.NewImporter(conn, logger).Replace(language, counts)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d %s words into %s.\n", n, language, dbPath)
	return nil
}

func runFreqFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	language := freqLang()
	url := pick(fetchURL, freq.DefaultListURL(language))
	path := pick(fetchPath, language+"_50k.txt")

	downloaded, err := freq.EnsureList(ctx, url, path)
	if err != nil {
		return fmt.Errorf("download frequency list: %w", err)
	}
	if downloaded {
		fmt.Printf("Downloaded %s to %s.\n", url, path)
	} else {
		fmt.Printf("Using existing list %s.\n", path)
	}
	return importList(path)
}

func runFreqBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var docs []string
	for _, a := range args {
		if corpus.IsURL(a) {
			docs = append(docs, a)
			continue
		}
		found, err := corpus.CollectDocuments(a)
		if err != nil {
			return fmt.Errorf("collect documents: %w", err)
		}
		docs = append(docs, found...)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no .html, .txt or .md documents found")
	}

	language := freqLang()
	tokenizers, err := freq.DefaultTokenizers(language == "ja")
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}

	dbPath := pick(freqDB, cfg.Database)
	conn, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open frequency store: %w", err)
	}
	defer conn.Close()

	b := corpus.NewBuilder(conn, language, tokenizers.For(language))
	b.Logger = logger
	b.Workers = cfg.Corpus.Workers
	if buildWorkers > 0 {
		b.Workers = buildWorkers
	}
	b.BatchSize = cfg.Corpus.BatchSize
	if buildBatchSize > 0 {
		b.BatchSize = buildBatchSize
	}
	b.OnProgress = func(done, total int) {
		if done == total || done%100 == 0 {
			fmt.Printf("Processed %d/%d documents\n", done, total)
		}
	}

	fmt.Printf("Counting words in %d documents...\n", len(docs))
	stats, err := b.Build(ctx, docs)
	if err != nil {
		return fmt.Errorf("corpus build failed: %w", err)
	}
	fmt.Printf("Processing complete. Counted %d tokens from %d new documents (%d already counted, %d failed).\n",
		stats.Tokens, stats.Documents, stats.Duplicates, stats.Failed)
	return nil
}

func runFreqLookup(cmd *cobra.Command, args []string) error {
	language := freqLang()
	oracle, closeFn, err := openOracle(language, "", pick(freqDB, cfg.Database))
	if err != nil {
		return err
	}
	defer closeFn()

	for _, w := range args {
		f, err := oracle.Frequency(w, language)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%g\n", w, f)
	}
	return nil
}

func runFreqTop(cmd *cobra.Command, args []string) error {
	conn, err := db.Open(pick(freqDB, cfg.Database))
	if err != nil {
		return fmt.Errorf("open frequency store: %w", err)
	}
	defer conn.Close()

	words, err := db.TopWords(conn, freqLang(), topLimit)
	if err != nil {
		return err
	}
	for _, w := range words {
		fmt.Printf("%s\t%d\t%g\n", w.Word, w.Count, w.Frequency)
	}
	return nil
}

func runFreqSources(cmd *cobra.Command, args []string) error {
	conn, err := db.Open(pick(freqDB, cfg.Database))
	if err != nil {
		return fmt.Errorf("open frequency store: %w", err)
	}
	defer conn.Close()

	sources, err := db.ListSources(conn, freqLang())
	if err != nil {
		return err
	}
	for _, s := range sources {
		fmt.Printf("%s\t%s\t%d tokens\t%s\n", s.AddedAt.Format("2006-01-02 15:04"), s.SourceType, s.TokenCount, s.Location)
	}
	fmt.Printf("%d documents.\n", len(sources))
	return nil
}
