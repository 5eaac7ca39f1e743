package core

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/roomrecall/roomrecall/internal/metrics"
	"github.com/roomrecall/roomrecall/internal/store"
	"github.com/roomrecall/roomrecall/internal/vectormath"
)

const (
	relevantChunkLimit  = 3   // Number of chunks used as answer context
	similarityThreshold = 0.7 // Chunks at or below this similarity are discarded
)

// RetrievalService answers a question from a room's transcribed audio:
// embed the question, rank the room's chunks by cosine similarity, keep
// the top matches above the threshold, and generate an answer from them.
type RetrievalService struct {
	dbStore *store.SQLiteStore
	ai      AI
	metrics *metrics.Metrics
}

func NewRetrievalService(db *store.SQLiteStore, ai AI, m *metrics.Metrics) *RetrievalService {
	return &RetrievalService{
		dbStore: db,
		ai:      ai,
		metrics: m,
	}
}

type scoredChunk struct {
	chunk      store.AudioChunk
	similarity float32
}

// Answer runs the retrieval pipeline for a question. When no chunk
// clears the similarity threshold it returns "" without calling the
// generation model; that is the documented no-context fallback, not an
// error.
func (s *RetrievalService) Answer(ctx context.Context, roomID, question string) (string, error) {
	queryEmbedding, err := s.ai.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	// Chunks are read fresh per question so the answer reflects all
	// audio committed at answer time.
	chunks, err := s.dbStore.GetAudioChunksByRoomID(roomID)
	if err != nil {
		return "", fmt.Errorf("failed to load audio chunks: %w", err)
	}

	passages := relevantPassages(queryEmbedding, chunks)
	s.metrics.RetrievedChunks.Observe(float64(len(passages)))

	if len(passages) == 0 {
		log.Printf("No relevant chunks found in room %s for question (threshold %.2f)", roomID, similarityThreshold)
		s.metrics.QuestionsUnanswered.Inc()
		return "", nil
	}

	answer, err := s.ai.GenerateAnswer(ctx, question, passages)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	s.metrics.QuestionsAnswered.Inc()
	return answer, nil
}

// relevantPassages ranks chunks against the query embedding and returns
// the transcriptions of the top matches above the similarity threshold,
// most similar first.
func relevantPassages(queryEmbedding []float32, chunks []store.AudioChunk) []string {
	scored := make([]scoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			log.Printf("Skipping chunk %s due to missing embedding.", chunk.ID)
			continue
		}
		similarity, err := vectormath.CosineSimilarity(queryEmbedding, chunk.Embedding)
		if err != nil {
			log.Printf("Error calculating similarity for chunk %s: %v. Skipping.", chunk.ID, err)
			continue
		}
		if similarity > similarityThreshold {
			scored = append(scored, scoredChunk{chunk: chunk, similarity: similarity})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})

	if len(scored) > relevantChunkLimit {
		scored = scored[:relevantChunkLimit]
	}

	passages := make([]string, 0, len(scored))
	for _, sc := range scored {
		passages = append(passages, sc.chunk.Transcription)
	}
	return passages
}
