package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/controller"
	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/internal/history"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

const (
	codeLength   = 6
	codeAttempts = 16
	historyLimit = 20
	historyMax   = 100
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createRoomResponse struct {
	Code     string `json:"code"`
	Identity string `json:"identity"`
}

// CreateRoom mints an unused room code and a fresh player identity.
func CreateRoom(ctrl *controller.Controller, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < codeAttempts; i++ {
			code, err := GenerateCode()
			if err != nil {
				log.Error("generate code", zap.Error(err))
				writeError(w, http.StatusInternalServerError, game.CodeInternal, "failed to generate code")
				return
			}
			taken, err := ctrl.RoomExists(r.Context(), code)
			if err != nil {
				log.Error("room lookup", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, game.CodeInternal, "room store unavailable")
				return
			}
			if taken {
				log.Debug("collision on code, regenerating", zap.String("code", code))
				continue
			}
			if err := ctrl.CreateRoom(r.Context(), code); err != nil {
				log.Error("create room", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, game.CodeInternal, "failed to create room")
				return
			}

			writeJSON(w, http.StatusCreated, createRoomResponse{Code: code, Identity: uuid.NewString()})
			return
		}
		writeError(w, http.StatusServiceUnavailable, game.CodeInternal, "no free room code")
	}
}

func GetRoom(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := ctrl.Snapshot(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type roundView struct {
	Round      int    `json:"round"`
	Word       string `json:"word"`
	Outcome    string `json:"outcome"`
	FailCount  int    `json:"failCount"`
	Setter     string `json:"setter"`
	Guesser    string `json:"guesser"`
	FinishedAt string `json:"finishedAt"`
}

// RoomHistory lists archived rounds, newest first. Only finished rounds are
// stored, so revealing their words is fine.
func RoomHistory(rec history.Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := game.NormalizeRoomID(chi.URLParam(r, "code"))
		if err != nil {
			writeGameError(w, err)
			return
		}
		limit := historyLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > historyMax {
				writeError(w, http.StatusBadRequest, game.CodeBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		rounds, err := rec.Recent(r.Context(), code, limit)
		if err != nil {
			log.Error("load history", zap.String("room", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, game.CodeInternal, "failed to load history")
			return
		}
		out := make([]roundView, 0, len(rounds))
		for _, rr := range rounds {
			out = append(out, roundView{
				Round:      rr.Round,
				Word:       rr.Word,
				Outcome:    rr.Outcome,
				FailCount:  rr.FailCount,
				Setter:     rr.Setter,
				Guesser:    rr.Guesser,
				FinishedAt: rr.FinishedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := ctrl.RoomCount(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, game.CodeInternal, "room store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Rooms int `json:"rooms"`
		}{Rooms: n})
	}
}

func writeGameError(w http.ResponseWriter, err error) {
	code := game.CodeOf(err)
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		status = http.StatusNotFound
	case code == game.CodeInternal:
		writeError(w, http.StatusInternalServerError, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code game.Code, message string) {
	writeJSON(w, status, types.ErrorBody{Code: string(code), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
