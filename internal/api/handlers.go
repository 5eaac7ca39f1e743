package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roomrecall/roomrecall/internal/core"
	"github.com/roomrecall/roomrecall/internal/store"
)

// maxAudioUploadBytes caps an uploaded audio segment at 10 MB.
const maxAudioUploadBytes = 10 << 20

type APIHandler struct {
	roomService *core.RoomService
}

func NewAPIHandler(rs *core.RoomService) *APIHandler {
	return &APIHandler{roomService: rs}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// roomIDParam validates the {roomID} path parameter before any store
// access happens. A malformed identifier never reaches business logic.
func roomIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	roomID := chi.URLParam(r, "roomID")
	if _, err := uuid.Parse(roomID); err != nil {
		respondError(w, http.StatusBadRequest, "Room id must be a valid UUID")
		return "", false
	}
	return roomID, true
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type CreateRoomRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type CreateRoomResponse struct {
	ID string `json:"id"`
}

func (h *APIHandler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Room name is required")
		return
	}

	room, err := h.roomService.CreateRoom(req.Name, req.Description)
	if err != nil {
		log.Printf("Error creating room: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	respondJSON(w, http.StatusCreated, CreateRoomResponse{ID: room.ID})
}

func (h *APIHandler) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.ListRooms()
	if err != nil {
		log.Printf("Error listing rooms: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []store.RoomSummary{}
	}
	respondJSON(w, http.StatusOK, rooms)
}

type CreateQuestionRequest struct {
	Question string `json:"question"`
}

type CreateQuestionResponse struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

func (h *APIHandler) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "Question is required")
		return
	}

	question, err := h.roomService.CreateQuestion(r.Context(), roomID, req.Question)
	if err != nil {
		log.Printf("Error creating question in room %s: %v", roomID, err)
		respondError(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	respondJSON(w, http.StatusCreated, CreateQuestionResponse{ID: question.ID, Answer: question.Answer})
}

func (h *APIHandler) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}

	questions, err := h.roomService.ListQuestions(roomID)
	if err != nil {
		log.Printf("Error listing questions for room %s: %v", roomID, err)
		respondError(w, http.StatusInternalServerError, "Failed to list questions")
		return
	}
	if questions == nil {
		questions = []store.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read audio file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	chunk, err := h.roomService.IngestAudio(r.Context(), roomID, audio, mimeType)
	if err != nil {
		if errors.Is(err, store.ErrNotCreated) {
			respondError(w, http.StatusInternalServerError, "Failed to create audio chunk")
			return
		}
		log.Printf("Error ingesting audio for room %s: %v", roomID, err)
		respondError(w, http.StatusInternalServerError, "Failed to process audio")
		return
	}

	respondJSON(w, http.StatusCreated, chunk)
}
