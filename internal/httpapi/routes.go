package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/controller"
	"github.com/DoyleJ11/hangman-rooms/internal/history"
	"github.com/DoyleJ11/hangman-rooms/internal/ws"
)

func SetupRoutes(ctrl *controller.Controller, rec history.Recorder, log *zap.Logger, wsOpts ws.Options) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = history.Nop()
	}
	log = log.Named("http")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/rooms", CreateRoom(ctrl, log))
	r.Get("/rooms/{code}", GetRoom(ctrl))
	r.Get("/rooms/{code}/history", RoomHistory(rec, log))
	r.Get("/healthz", Healthz(ctrl))
	r.Get("/ws", ws.Handler(ctrl, log, wsOpts))
	return r
}
