package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	if os.Getenv("DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := server.ConfigFromEnv()
	// fail early on a broken default level
	if _, _, err := cfg.LoadLevel(""); err != nil {
		log.WithError(err).Fatal("default level")
	}

	srv := Server{
		GameServer: server.NewGameServer(cfg),
	}
	go srv.GameServer.Loop(ctx)
	srv.routes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	httpServer := &http.Server{Addr: ":" + port, Handler: srv.router}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdown)
	}()
	log.WithFields(log.Fields{"port": port, "levels": cfg.LevelDir}).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalln(err)
	}
}
