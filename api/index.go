package handler

import (
	"net/http"

	"teleconsult/config"
	"teleconsult/di"
	"teleconsult/shared/logger"
)

func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	cfg := config.Get()

	logger.Configure(cfg)

	handler, cleanup := di.InitializeService()
	defer cleanup()

	handler.ServeHTTP(w, r)
}
