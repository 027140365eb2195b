// Package server exposes the prompt and image generation pipeline over
// HTTP. Timeouts and cancellation belong to this layer; handlers pass the
// request context down to the pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/osler-labs/medcanvas/internal/generate"
	"github.com/osler-labs/medcanvas/internal/imagestore"
	"github.com/osler-labs/medcanvas/internal/orchestrator"
)

// Generator is the slice of the pipeline the HTTP layer needs.
type Generator interface {
	GeneratePrompt(ctx context.Context, systemInstruction, question string) (string, error)
	GenerateImage(ctx context.Context, imagePrompt string) (*orchestrator.GeneratedImage, error)
}

// Server handles HTTP requests for prompt and image generation.
type Server struct {
	pipeline Generator
	images   *imagestore.Store
}

// New creates a Server around a pipeline and its image store.
func New(pipeline Generator, images *imagestore.Store) *Server {
	return &Server{
		pipeline: pipeline,
		images:   images,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/generate-prompt", s.handleGeneratePrompt)
	r.Post("/api/generate-image", s.handleGenerateImage)
	r.Get("/images/{filename}", s.handleServeImage)

	return r
}

// defaultUserQuestion substitutes for an omitted user_question. The system
// instruction has no default; requests without one are rejected.
const defaultUserQuestion = "A serene landscape at sunset"

type generatePromptRequest struct {
	SystemInstruction string `json:"system_instruction"`
	UserQuestion      string `json:"user_question"`
}

type generatePromptResponse struct {
	Prompt  string `json:"prompt"`
	Success bool   `json:"success"`
}

type generateImageRequest struct {
	Prompt string `json:"prompt"`
}

type generateImageResponse struct {
	ImageURL string `json:"image_url"`
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGeneratePrompt(w http.ResponseWriter, r *http.Request) {
	var req generatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.SystemInstruction == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "system_instruction is required"})
		return
	}
	if req.UserQuestion == "" {
		req.UserQuestion = defaultUserQuestion
	}

	promptText, err := s.pipeline.GeneratePrompt(r.Context(), req.SystemInstruction, req.UserQuestion)
	if err != nil {
		log.Printf("[Server] Prompt generation failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: fmt.Sprintf("error generating prompt: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, generatePromptResponse{Prompt: promptText, Success: true})
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	img, err := s.pipeline.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		log.Printf("[Server] Image generation failed: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, generate.ErrInvalidConfig) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: fmt.Sprintf("error generating image: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, generateImageResponse{
		ImageURL: fmt.Sprintf("http://%s/images/%s", r.Host, img.Filename),
		Filename: img.Filename,
		Success:  true,
	})
}

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := s.images.Resolve(filename)
	if err != nil {
		if errors.Is(err, imagestore.ErrInvalidFilename) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid image filename"})
			return
		}
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "image not found"})
		return
	}

	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Server] Failed to encode response: %v", err)
	}
}
