package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/japaniel/dictkit/pkg/server"
)

var (
	serveAddr     string
	serveSource   string
	serveUpstream string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve GET /api/dict/:word from the dictionary directory",
	Long: `Starts the lookup API. Entries are read from the dictionary directory,
or, with --upstream, proxied from another deployment of the same API.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVarP(&serveSource, "source", "s", "", "Dictionary directory (default from config)")
	serveCmd.Flags().StringVar(&serveUpstream, "upstream", "", "Proxy lookups to this base URL instead")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	s := server.New(pick(serveSource, cfg.DictionaryDir), logger)
	if up := pick(serveUpstream, cfg.Server.Upstream); up != "" {
		u, err := url.Parse(up)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid upstream URL %q", up)
		}
		s.Upstream = u
	}

	addr := pick(serveAddr, cfg.Server.Addr)
	fmt.Printf("Serving dictionary lookups on %s\n", addr)
	return s.Run(ctx, addr)
}
