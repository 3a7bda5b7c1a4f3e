package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"indexchat/internal/appstate"
	"indexchat/internal/config"
	"indexchat/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /chat and GET /healthz",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config: "+config.DefaultListen+")")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var overrides *config.Overrides
	if cmd.Flags().Changed("listen") {
		overrides = &config.Overrides{Listen: &serveListen}
	}
	a, err := newApp(ctx, overrides)
	if err != nil {
		return err
	}
	defer a.close()

	stats := appstate.NewChatState()
	a.service.SetObserver(stats.Record)
	srv, err := server.New(server.Options{Chat: a.service, Health: a.store, Stats: stats, Logger: a.logger})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.cfg.Server.Listen)
	if err != nil {
		return withExitCode(ExitBindFailure, fmt.Errorf("bind %s: %w", a.cfg.Server.Listen, err))
	}

	out := cmd.OutOrStdout()
	st := newStyles(out, globalFlags.JSON)
	if !globalFlags.JSON && !globalFlags.Quiet {
		fmt.Fprintln(out, st.banner(), st.dim(version))
		fmt.Fprintln(out, st.kv("Listening", st.URL.Render("http://"+ln.Addr().String())))
		fmt.Fprintln(out, st.kv("Model", a.cfg.Gemini.Model))
		fmt.Fprintln(out, st.kv("Store", describeStore(a.cfg)))
	}
	a.logger.Info("server started", "addr", ln.Addr().String(), "model", a.cfg.Gemini.Model, "store", a.cfg.Store.Driver)

	if err := srv.Serve(ctx, ln); err != nil && ctx.Err() == nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func describeStore(cfg *config.Config) string {
	if cfg.Store.Driver == "sqlite" {
		return "sqlite " + cfg.Store.SQLitePath
	}
	return fmt.Sprintf("mongo %s/%s", cfg.Store.Database, cfg.Store.Collection)
}

