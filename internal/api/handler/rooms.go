package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/session"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// RoomsHandler serves read-only room endpoints alongside the websocket API
type RoomsHandler struct {
	directory *session.Directory
	// baseURL is the public address encoded into join QR codes
	baseURL string
	logger  *slog.Logger
}

// NewRoomsHandler creates a RoomsHandler
func NewRoomsHandler(directory *session.Directory, baseURL string, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{
		directory: directory,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// List returns the joinable rooms
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"rooms": h.directory.Listings(),
	})
}

// Get returns a snapshot of one room
func (h *RoomsHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.RoomID(mux.Vars(r)["code"])

	snapshot, err := h.directory.RoomSnapshot(r.Context(), code)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.logger.Error("room snapshot failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// QR renders a PNG QR code whose payload is the join link for the room
func (h *RoomsHandler) QR(w http.ResponseWriter, r *http.Request) {
	code := model.RoomID(mux.Vars(r)["code"])

	if _, err := h.directory.RoomSnapshot(r.Context(), code); err != nil {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQRSize {
			respondError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = parsed
	}

	joinURL := h.baseURL + "/join/" + string(code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		h.logger.Error("qr encoding failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
