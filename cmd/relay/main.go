package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tzkusman/live-storefront/internal/config"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "relay"})
	logger := log.L()

	forwarder, err := relay.New(cfg.Relay.Upstream)
	if err != nil {
		logger.Fatal().Err(err).Str("upstream", cfg.Relay.Upstream).Msg("invalid upstream")
	}

	router := mux.NewRouter()
	router.PathPrefix("/").Handler(forwarder)

	addr := fmt.Sprintf(":%d", cfg.Relay.Port)
	logger.Info().Str("addr", addr).Str("upstream", cfg.Relay.Upstream).Msg("relay listening")

	if err := http.ListenAndServe(addr, log.HTTPMiddleware(logger)(router)); err != nil {
		logger.Fatal().Err(err).Msg("relay server error")
	}
}
