package api

import (
	"net/http"

	"retail-ops/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Tracing first so every request gets a root span, then recovery, CORS
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Document endpoints
	api.HandleFunc("/documents", h.CreateDocument).Methods("POST")
	api.HandleFunc("/documents", h.ListDocuments).Methods("GET")
	api.HandleFunc("/documents/{id}", h.GetDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", h.UpdateDocument).Methods("PUT")
	api.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")
	api.HandleFunc("/documents/{id}/feedback", h.DocumentFeedback).Methods("POST")

	// Retrieval endpoints
	api.HandleFunc("/search", h.Search).Methods("POST")
	api.HandleFunc("/rag/ask", h.Ask).Methods("POST")

	// Vocabulary endpoints
	api.HandleFunc("/tags", h.ListTags).Methods("GET")
	api.HandleFunc("/tags/{name}", h.DeleteTag).Methods("DELETE")
	api.HandleFunc("/categories", h.ListCategories).Methods("GET")
	api.HandleFunc("/categories", h.CreateCategory).Methods("POST")
	api.HandleFunc("/categories/{name}", h.DeleteCategory).Methods("DELETE")

	// Sales / forecasting endpoints
	api.HandleFunc("/sales/upload", h.UploadSales).Methods("POST")
	api.HandleFunc("/forecast/train", h.TrainModel).Methods("POST")
	api.HandleFunc("/forecast/train-all", h.TrainAllModels).Methods("POST")
	api.HandleFunc("/forecast/predict", h.Predict).Methods("POST")

	// Health check endpoint
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"retail-ops"}`))
	}).Methods("GET")

	// Live batch-training progress
	r.HandleFunc("/ws/training", h.TrainingProgress)

	return r
}
