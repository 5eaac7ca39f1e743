package store

import (
	"fmt"
	"log"
	"time"
)

type seedRoom struct {
	name        string
	description string
	transcripts []string
	questions   []string
}

var seedRooms = []seedRoom{
	{
		name:        "Weekly Planning",
		description: "Recurring planning session for the platform team",
		transcripts: []string{
			"This week we are focusing on the ingestion pipeline and closing out the remaining review comments.",
			"The deadline for the migration is next Friday, and staging should be frozen from Wednesday onwards.",
		},
		questions: []string{
			"What is the deadline for the migration?",
			"What is the team focusing on this week?",
		},
	},
	{
		name:        "Architecture Review",
		description: "Deep dive on the storage layer redesign",
		transcripts: []string{
			"We agreed to keep the relational store and add the vector column instead of introducing a second database.",
			"Backfill will run as a one-off job and new writes will carry embeddings from day one.",
		},
		questions: []string{
			"Are we introducing a second database?",
		},
	},
	{
		name:        "Onboarding Notes",
		description: "",
		transcripts: []string{
			"Access requests go through the infra portal and usually take one business day to be approved.",
		},
		questions:   nil,
	},
}

// Seed resets the database and repopulates it with sample rooms,
// questions, and embedded audio chunks. The embedder is called once per
// transcript, so this hits the live embedding service.
func (s *SQLiteStore) Seed(embedder func(string) ([]float32, error)) (int, error) {
	if err := s.reset(); err != nil {
		return 0, fmt.Errorf("failed to reset database: %w", err)
	}

	// Stay under the embedding service rate limit.
	ticker := time.NewTicker(40 * time.Millisecond)
	defer ticker.Stop()

	count := 0
	for _, sr := range seedRooms {
		var description *string
		if sr.description != "" {
			d := sr.description
			description = &d
		}
		room, err := s.CreateRoom(sr.name, description)
		if err != nil {
			return count, fmt.Errorf("failed to seed room %q: %w", sr.name, err)
		}

		for _, transcript := range sr.transcripts {
			<-ticker.C
			embedding, err := embedder(transcript)
			if err != nil {
				log.Printf("Failed to embed seed transcript for room %q: %v. Skipping.", sr.name, err)
				continue
			}
			if _, err := s.CreateAudioChunk(room.ID, transcript, embedding); err != nil {
				log.Printf("Failed to seed audio chunk for room %q: %v. Skipping.", sr.name, err)
				continue
			}
			count++
		}

		for _, question := range sr.questions {
			if _, err := s.CreateQuestion(room.ID, question, ""); err != nil {
				log.Printf("Failed to seed question for room %q: %v. Skipping.", sr.name, err)
			}
		}
	}

	log.Printf("Seeded %d rooms with %d audio chunks.", len(seedRooms), count)
	return count, nil
}

func (s *SQLiteStore) reset() error {
	for _, table := range []string{"audio_chunks", "questions", "rooms"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
