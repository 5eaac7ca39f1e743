package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestionStoresComputedAnswer(t *testing.T) {
	db := newTestStore(t)
	room, err := db.CreateRoom("room", nil)
	require.NoError(t, err)

	_, err = db.CreateAudioChunk(room.ID, "the meeting is on friday", embeddingWithSimilarity(0.9))
	require.NoError(t, err)

	ai := &fakeAI{embedding: []float32{1, 0}, answer: "On Friday."}
	m := newTestMetrics()
	svc := NewRoomService(db, NewRetrievalService(db, ai, m), ai, m)

	q, err := svc.CreateQuestion(context.Background(), room.ID, "when is the meeting?")
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "On Friday.", q.Answer)

	// Round-trip through the listing.
	questions, err := svc.ListQuestions(room.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "when is the meeting?", questions[0].Question)
	assert.Equal(t, "On Friday.", questions[0].Answer)
}

func TestCreateQuestionWithoutContextStoresEmptyAnswer(t *testing.T) {
	db := newTestStore(t)
	room, err := db.CreateRoom("room", nil)
	require.NoError(t, err)

	ai := &fakeAI{embedding: []float32{1, 0}}
	m := newTestMetrics()
	svc := NewRoomService(db, NewRetrievalService(db, ai, m), ai, m)

	q, err := svc.CreateQuestion(context.Background(), room.ID, "anything recorded?")
	require.NoError(t, err)
	assert.Equal(t, "", q.Answer)
}

func TestIngestAudioPersistsTranscribedChunk(t *testing.T) {
	db := newTestStore(t)
	room, err := db.CreateRoom("room", nil)
	require.NoError(t, err)

	ai := &fakeAI{transcript: "hello world", embedding: []float32{0.5, 0.5}}
	m := newTestMetrics()
	svc := NewRoomService(db, NewRetrievalService(db, ai, m), ai, m)

	chunk, err := svc.IngestAudio(context.Background(), room.ID, []byte("audio-bytes"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "hello world", chunk.Transcription)

	chunks, err := db.GetAudioChunksByRoomID(room.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{0.5, 0.5}, chunks[0].Embedding)
}

func TestIngestAudioTranscriptionFailureWritesNothing(t *testing.T) {
	db := newTestStore(t)
	room, err := db.CreateRoom("room", nil)
	require.NoError(t, err)

	ai := &fakeAI{transcribeErr: errors.New("transcription down")}
	m := newTestMetrics()
	svc := NewRoomService(db, NewRetrievalService(db, ai, m), ai, m)

	_, err = svc.IngestAudio(context.Background(), room.ID, []byte("audio-bytes"), "audio/webm")
	assert.Error(t, err)

	chunks, err := db.GetAudioChunksByRoomID(room.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
