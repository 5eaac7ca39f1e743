package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/roomrecall/roomrecall/internal/recorder"
)

func main() {
	log.SetFlags(log.LstdFlags)

	serverURL := flag.String("server", "http://localhost:3333", "Base URL of the room recall server")
	roomID := flag.String("room", "", "UUID of the room to record into (required)")
	audioPath := flag.String("file", "-", "Audio source: a file path, or - for stdin")
	mimeType := flag.String("mime", "audio/webm", "MIME type of the audio source")
	interval := flag.Duration("interval", recorder.DefaultSegmentInterval, "Segment slicing interval")
	flag.Parse()

	if *roomID == "" {
		log.Fatal("-room is required")
	}

	var source io.ReadCloser
	if *audioPath == "-" {
		source = os.Stdin
	} else {
		f, err := os.Open(*audioPath)
		if err != nil {
			log.Fatalf("Failed to open audio source: %v", err)
		}
		source = f
	}

	rec := recorder.New(recorder.NewClient(*serverURL), *roomID, *mimeType, *interval)
	if err := rec.Start(source); err != nil {
		log.Fatalf("Failed to start recording: %v", err)
	}
	log.Printf("Recording into room %s (segment interval %s). Press Ctrl+C to stop.", *roomID, *interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Stopping recording...")
	case <-rec.Done():
		log.Println("Audio source drained, stopping...")
	}

	rec.Stop()
	rec.WaitUploads()
	log.Println("Recorder exiting")
}
