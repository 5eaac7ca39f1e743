package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotCreated is returned when an insert reports that no row was
// written, e.g. under store backpressure.
var ErrNotCreated = errors.New("store: row not created")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	// The pragma must ride on the DSN so every pooled connection
	// enforces foreign keys, not just the first.
	if !strings.Contains(dataSourceName, "_foreign_keys") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_foreign_keys=on"
		} else {
			dataSourceName += "?_foreign_keys=on"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS rooms (
        id TEXT PRIMARY KEY, -- UUID
        name TEXT NOT NULL,
        description TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS questions (
        id TEXT PRIMARY KEY, -- UUID
        room_id TEXT NOT NULL,
        question TEXT NOT NULL,
        answer TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (room_id) REFERENCES rooms (id)
    );

    CREATE TABLE IF NOT EXISTS audio_chunks (
        id TEXT PRIMARY KEY, -- UUID
        room_id TEXT NOT NULL,
        transcription TEXT NOT NULL,
        embedding_json TEXT NOT NULL, -- JSON string of []float32
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (room_id) REFERENCES rooms (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Room methods
func (s *SQLiteStore) CreateRoom(name string, description *string) (*Room, error) {
	roomID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO rooms (id, name, description, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare room insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	_, err = stmt.Exec(roomID, name, description, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute room insert: %w", err)
	}
	return &Room{ID: roomID, Name: name, Description: description, CreatedAt: now}, nil
}

// ListRooms returns all rooms ordered by creation time descending, each
// with a count of its questions. Rooms without questions show count 0.
func (s *SQLiteStore) ListRooms() ([]RoomSummary, error) {
	query := `
        SELECT r.id, r.name, COUNT(q.id), r.created_at
        FROM rooms r
        LEFT JOIN questions q ON q.room_id = r.id
        GROUP BY r.id
        ORDER BY r.created_at DESC
    `
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []RoomSummary
	for rows.Next() {
		var room RoomSummary
		if err := rows.Scan(&room.ID, &room.Name, &room.QuestionCount, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *SQLiteStore) GetRoomByID(roomID string) (*Room, error) {
	var room Room
	var description sql.NullString
	err := s.db.QueryRow("SELECT id, name, description, created_at FROM rooms WHERE id = ?", roomID).
		Scan(&room.ID, &room.Name, &description, &room.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if description.Valid {
		room.Description = &description.String
	}
	return &room, nil
}

// Question methods
func (s *SQLiteStore) CreateQuestion(roomID, question, answer string) (*Question, error) {
	questionID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO questions (id, room_id, question, answer, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare question insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	_, err = stmt.Exec(questionID, roomID, question, answer, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute question insert: %w", err)
	}
	return &Question{ID: questionID, RoomID: roomID, Question: question, Answer: answer, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetQuestionsByRoomID(roomID string) ([]Question, error) {
	query := `
        SELECT id, room_id, question, answer, created_at
        FROM questions
        WHERE room_id = ?
        ORDER BY created_at DESC
    `
	rows, err := s.db.Query(query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.RoomID, &q.Question, &q.Answer, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AudioChunk methods
func (s *SQLiteStore) CreateAudioChunk(roomID, transcription string, embedding []float32) (*AudioChunk, error) {
	embeddingBytes, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding: %w", err)
	}

	chunkID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO audio_chunks (id, room_id, transcription, embedding_json, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare audio_chunk insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	res, err := stmt.Exec(chunkID, roomID, transcription, string(embeddingBytes), now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute audio_chunk insert: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, ErrNotCreated
	}

	return &AudioChunk{
		ID:            chunkID,
		RoomID:        roomID,
		Transcription: transcription,
		Embedding:     embedding,
		CreatedAt:     now,
	}, nil
}

func (s *SQLiteStore) GetAudioChunksByRoomID(roomID string) ([]AudioChunk, error) {
	query := `
        SELECT id, room_id, transcription, embedding_json, created_at
        FROM audio_chunks
        WHERE room_id = ?
        ORDER BY created_at ASC
    `
	rows, err := s.db.Query(query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio_chunks: %w", err)
	}
	defer rows.Close()

	var chunks []AudioChunk
	for rows.Next() {
		var chunk AudioChunk
		var embeddingJSON string
		if err := rows.Scan(&chunk.ID, &chunk.RoomID, &chunk.Transcription, &embeddingJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audio_chunk row: %w", err)
		}
		if embeddingJSON != "" {
			if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
				log.Printf("Warning: failed to unmarshal embedding for chunk %s: %v. Embedding will be empty.", chunk.ID, err)
				chunk.Embedding = nil
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
