package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomrecall/roomrecall/internal/core"
	"github.com/roomrecall/roomrecall/internal/metrics"
	"github.com/roomrecall/roomrecall/internal/store"
)

type fakeAI struct {
	transcript string
	embedding  []float32
	answer     string
}

func (f *fakeAI) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f.transcript, nil
}

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.embedding, nil
}

func (f *fakeAI) GenerateAnswer(ctx context.Context, question string, passages []string) (string, error) {
	return f.answer, nil
}

func newTestServer(t *testing.T, ai core.AI) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := store.NewSQLiteStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := metrics.New(prometheus.NewRegistry())
	retrieval := core.NewRetrievalService(db, ai, m)
	roomService := core.NewRoomService(db, retrieval, ai, m)

	srv := httptest.NewServer(NewRouter(NewAPIHandler(roomService), m))
	t.Cleanup(srv.Close)
	return srv, db
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createRoom(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/rooms", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created CreateRoomResponse
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAI{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))
}

func TestCreateRoomValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAI{})

	resp := postJSON(t, srv.URL+"/rooms", map[string]string{"name": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListRoomsWithQuestionCounts(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAI{embedding: []float32{1, 0}})

	roomID := createRoom(t, srv, "standup")
	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/rooms/"+roomID+"/questions", map[string]string{"question": "anything?"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)

	var rooms []store.RoomSummary
	decodeBody(t, resp, &rooms)
	require.Len(t, rooms, 1)
	assert.Equal(t, "standup", rooms[0].Name)
	assert.Equal(t, 2, rooms[0].QuestionCount)
}

func TestListRoomsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAI{})

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestMalformedRoomIDRejected(t *testing.T) {
	srv, db := newTestServer(t, &fakeAI{})

	resp := postJSON(t, srv.URL+"/rooms/not-a-uuid/questions", map[string]string{"question": "hi"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Validation happens before any store access.
	rooms, err := db.ListRooms()
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestCreateQuestionAndRoundTrip(t *testing.T) {
	ai := &fakeAI{transcript: "we ship on friday", embedding: []float32{1, 0}, answer: "On Friday."}
	srv, db := newTestServer(t, ai)

	roomID := createRoom(t, srv, "planning")
	_, err := db.CreateAudioChunk(roomID, "we ship on friday", []float32{1, 0})
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/rooms/"+roomID+"/questions", map[string]string{"question": "when do we ship?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateQuestionResponse
	decodeBody(t, resp, &created)
	assert.Equal(t, "On Friday.", created.Answer)

	listResp, err := http.Get(srv.URL + "/rooms/" + roomID + "/questions")
	require.NoError(t, err)

	var questions []store.Question
	decodeBody(t, listResp, &questions)
	require.Len(t, questions, 1)
	assert.Equal(t, created.ID, questions[0].ID)
	assert.Equal(t, "when do we ship?", questions[0].Question)
	assert.Equal(t, "On Friday.", questions[0].Answer)
}

func TestCreateQuestionWithoutContextReturnsEmptyAnswer(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAI{embedding: []float32{1, 0}, answer: "unused"})

	roomID := createRoom(t, srv, "empty room")

	resp := postJSON(t, srv.URL+"/rooms/"+roomID+"/questions", map[string]string{"question": "anything?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateQuestionResponse
	decodeBody(t, resp, &created)
	assert.Equal(t, "", created.Answer)
}

func TestCreateQuestionValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAI{})
	roomID := createRoom(t, srv, "room")

	resp := postJSON(t, srv.URL+"/rooms/"+roomID+"/questions", map[string]string{"question": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func uploadAudio(t *testing.T, url string, withFile bool) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if withFile {
		part, err := writer.CreateFormFile("file", "segment.webm")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-audio-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	resp, err := http.Post(url, writer.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func TestUploadAudio(t *testing.T) {
	ai := &fakeAI{transcript: "hello from the room", embedding: []float32{0.2, 0.8}}
	srv, db := newTestServer(t, ai)

	roomID := createRoom(t, srv, "recording")

	resp := uploadAudio(t, srv.URL+"/rooms/"+roomID+"/audio", true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var chunk store.AudioChunk
	decodeBody(t, resp, &chunk)
	assert.Equal(t, "hello from the room", chunk.Transcription)
	assert.Equal(t, roomID, chunk.RoomID)

	chunks, err := db.GetAudioChunksByRoomID(roomID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestUploadAudioWithoutFile(t *testing.T) {
	srv, db := newTestServer(t, &fakeAI{})

	roomID := createRoom(t, srv, "recording")

	resp := uploadAudio(t, srv.URL+"/rooms/"+roomID+"/audio", false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "No audio file provided", errBody["error"])

	chunks, err := db.GetAudioChunksByRoomID(roomID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
