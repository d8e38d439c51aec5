package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/japaniel/dictkit/pkg/upload"
)

var uploadSource string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload every dictionary entry to the site content API",
	Long: `Posts each <word>.json entry as "dictionary/<file>" to the content API,
one request at a time with a short pause after each success. The first
rejected upload stops the run with a non-zero exit status.

Requires AUTH_TOKEN and COOKIE_STRING in the environment.`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

var kvSource string

var kvUploadCmd = &cobra.Command{
	Use:   "kv-upload",
	Short: "Bulk-write dictionary entries to a Cloudflare KV namespace",
	Long: `Writes every entry as key <word> in chunks of up to 10000 pairs.

Requires CLOUDFLARE_ACCOUNT_ID, CLOUDFLARE_KV_NAMESPACE_ID and
CLOUDFLARE_API_TOKEN in the environment.`,
	Args: cobra.NoArgs,
	RunE: runKVUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadSource, "source", "s", "", "Dictionary directory (default from config)")
	kvUploadCmd.Flags().StringVarP(&kvSource, "source", "s", "", "Dictionary directory (default from config)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ucfg, err := cfg.UploaderConfig(upload.CredentialsFromEnv())
	if err != nil {
		return err
	}
	source := pick(uploadSource, cfg.DictionaryDir)

	u := upload.NewUploader(ucfg, logger)
	u.OnProgress = func(key string, err error) {
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Uploaded %s\n", key)
	}
	res, err := u.UploadAll(ctx, source)
	for _, s := range res.Skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: %v\n", s.Name, s.Err)
	}
	if err != nil {
		if res.Failure != nil {
			fmt.Printf("Upload failed after %d attempts.\n", res.Attempted())
		}
		return err
	}
	fmt.Printf("All files processed: %d uploaded, %d skipped.\n", len(res.Uploaded), len(res.Skipped))
	return nil
}

func runKVUpload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := pick(kvSource, cfg.DictionaryDir)
	fmt.Printf("Reading dictionary entries from %s...\n", source)

	res, err := upload.NewKVUploader(cfg.KVUploaderConfig(), logger).Upload(ctx, source)
	for _, s := range res.Skipped {
		fmt.Fprintf(os.Stderr, "Skipped %s: %v\n", s.Name, s.Err)
	}
	if err != nil {
		return err
	}
	if res.Uploaded == 0 {
		fmt.Println("No entries found to upload.")
		return nil
	}
	fmt.Printf("Uploaded %d entries to Cloudflare KV in %d chunks.\n", res.Uploaded, res.Chunks)
	return nil
}
