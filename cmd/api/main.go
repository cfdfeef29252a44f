package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/bootstrap"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/config"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	r := server.NewRouter(cfg, server.Deps{
		Resumes:      app.Resumes,
		CoverLetters: app.CoverLetters,
		Health:       app.Health,
	})

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
