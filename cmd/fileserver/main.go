// Command fileserver serves the source document directory over HTTP so
// the viewer links in chat references resolve.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/kataras/golog"

	"github.com/smallnest/finchat/config"
	"github.com/smallnest/finchat/log"
)

func main() {
	configPath := flag.String("config", "app_config.yml", "path to the application config")
	flag.Parse()

	log.SetDefaultLogger(log.NewGologLogger(golog.New()))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration error: %v", err)
		os.Exit(1)
	}

	dir := cfg.Directories.DataDirectory
	handler := http.FileServer(http.Dir(dir))

	log.Info("serving %s on %s (reference base %s)", dir, cfg.Server.ListenAddr, cfg.Server.ReferenceBaseURL)
	if err := http.ListenAndServe(cfg.Server.ListenAddr, logRequests(handler)); err != nil {
		log.Error("file server stopped: %v", err)
		os.Exit(1)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
