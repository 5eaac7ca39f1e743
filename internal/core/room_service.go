package core

import (
	"context"
	"fmt"

	"github.com/roomrecall/roomrecall/internal/metrics"
	"github.com/roomrecall/roomrecall/internal/store"
)

// RoomService orchestrates room, question, and audio operations against
// the store and the generative backend.
type RoomService struct {
	dbStore   *store.SQLiteStore
	retrieval *RetrievalService
	ai        AI
	metrics   *metrics.Metrics
}

func NewRoomService(db *store.SQLiteStore, retrieval *RetrievalService, ai AI, m *metrics.Metrics) *RoomService {
	return &RoomService{
		dbStore:   db,
		retrieval: retrieval,
		ai:        ai,
		metrics:   m,
	}
}

func (s *RoomService) CreateRoom(name string, description *string) (*store.Room, error) {
	return s.dbStore.CreateRoom(name, description)
}

func (s *RoomService) ListRooms() ([]store.RoomSummary, error) {
	return s.dbStore.ListRooms()
}

// CreateQuestion computes an answer via the retrieval pipeline and
// stores the question with that answer. The answer is derived from the
// room's audio chunks as they exist right now; later uploads do not
// update it.
func (s *RoomService) CreateQuestion(ctx context.Context, roomID, question string) (*store.Question, error) {
	answer, err := s.retrieval.Answer(ctx, roomID, question)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	created, err := s.dbStore.CreateQuestion(roomID, question, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to store question: %w", err)
	}
	return created, nil
}

func (s *RoomService) ListQuestions(roomID string) ([]store.Question, error) {
	return s.dbStore.GetQuestionsByRoomID(roomID)
}

// IngestAudio transcribes and embeds an uploaded audio segment and
// persists it as an AudioChunk. A transcription or embedding failure
// aborts the whole upload; nothing is written.
func (s *RoomService) IngestAudio(ctx context.Context, roomID string, audio []byte, mimeType string) (*store.AudioChunk, error) {
	s.metrics.TranscriptionRequests.Inc()
	transcription, err := s.ai.Transcribe(ctx, audio, mimeType)
	if err != nil {
		s.metrics.TranscriptionFailures.Inc()
		return nil, fmt.Errorf("failed to transcribe audio: %w", err)
	}

	embedding, err := s.ai.Embed(ctx, transcription)
	if err != nil {
		return nil, fmt.Errorf("failed to embed transcription: %w", err)
	}

	chunk, err := s.dbStore.CreateAudioChunk(roomID, transcription, embedding)
	if err != nil {
		return nil, err
	}

	s.metrics.AudioChunksStored.Inc()
	return chunk, nil
}
