package main

import (
	"fmt"
	"net/http"

	"github.com/matryer/way"
)

const URI_WS = "/play/:level"
const URI_WS_DEFAULT = "/play"
const URI_HEALTH = "/health"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_WS, s.GameServer.HandleHttpCall())
	s.router.HandleFunc("GET", URI_WS_DEFAULT, s.GameServer.HandleHttpCall())
	s.router.HandleFunc("GET", URI_HEALTH, s.health())
}

func (s *Server) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "ok levels=%s default=%s\n", s.GameServer.Config.LevelDir, s.GameServer.Config.DefaultLevel)
	}
}
