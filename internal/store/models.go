package store

import "time"

type Room struct {
	ID          string    `json:"id"` // UUID
	Name        string    `json:"name"`
	Description *string   `json:"description"` // Nullable
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomSummary is a Room joined with its question count, as returned by
// the room listing.
type RoomSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Question struct {
	ID        string    `json:"id"` // UUID
	RoomID    string    `json:"roomId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"` // Empty when retrieval found no context
	CreatedAt time.Time `json:"createdAt"`
}

type AudioChunk struct {
	ID            string    `json:"id"` // UUID
	RoomID        string    `json:"roomId"`
	Transcription string    `json:"transcription"`
	Embedding     []float32 `json:"-"` // Internal, stored as JSON string in DB
	CreatedAt     time.Time `json:"createdAt"`
}
