package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"retail-ops/internal/apperrors"
	"retail-ops/internal/forecast"
	"retail-ops/internal/models"
	"retail-ops/internal/repository"
	"retail-ops/internal/search"
	"retail-ops/internal/services/progress"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests. Repos are concrete types, services hide
// behind the interfaces declared in this package.
type Handler struct {
	docRepo    *repository.DocumentRepositoryImpl
	tagRepo    *repository.TagRepositoryImpl
	salesRepo  *repository.SalesRepositoryImpl
	engine     SearchEngine
	forecaster Forecaster
	encoder    Encoder
	hub        *progress.Hub
}

func NewHandler(
	docRepo *repository.DocumentRepositoryImpl,
	tagRepo *repository.TagRepositoryImpl,
	salesRepo *repository.SalesRepositoryImpl,
	engine SearchEngine,
	forecaster Forecaster,
	encoder Encoder,
	hub *progress.Hub,
) *Handler {
	return &Handler{
		docRepo:    docRepo,
		tagRepo:    tagRepo,
		salesRepo:  salesRepo,
		engine:     engine,
		forecaster: forecaster,
		encoder:    encoder,
		hub:        hub,
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, apperrors.ErrStorageCorruption):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Document handlers

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var doc models.DocumentCreate
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if doc.Title == "" || doc.Content == "" {
		writeError(w, errors.Join(apperrors.ErrValidation, errors.New("title and content are required")))
		return
	}

	// Embed synchronously: the document row, its vector and its tags are
	// one transactional unit. A document without an embedding cannot
	// participate in semantic search.
	stub := models.Document{Title: doc.Title, Content: doc.Content}
	vec, err := h.encoder.Encode(r.Context(), stub.EmbedText())
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.docRepo.Create(r.Context(), &doc, vec)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	documents, err := h.docRepo.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.docRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	tags, err := h.tagRepo.TagsForDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document": doc,
		"tags":     tags,
	})
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update models.DocumentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Re-embed only when the embed-relevant fields change.
	var vec []float32
	if update.Title != nil || update.Content != nil {
		current, err := h.docRepo.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		next := models.Document{Title: current.Title, Content: current.Content}
		if update.Title != nil {
			next.Title = *update.Title
		}
		if update.Content != nil {
			next.Content = *update.Content
		}

		vec, err = h.encoder.Encode(r.Context(), next.EmbedText())
		if err != nil {
			writeError(w, err)
			return
		}
	}

	updated, err := h.docRepo.Update(r.Context(), id, &update, vec)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.docRepo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DocumentFeedback(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Action models.FeedbackKind `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.docRepo.Feedback(r.Context(), id, req.Action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// Search handlers

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TopK == 0 {
		req.TopK = 10
	}
	if req.Mode == "" {
		req.Mode = models.ModeSmart
	}

	results, err := h.engine.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"mode":    req.Mode,
		"results": results,
		"count":   len(results),
	})
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := h.engine.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// Tag / category handlers

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagRepo.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.tagRepo.DeleteTag(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tagRepo.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, errors.Join(apperrors.ErrValidation, errors.New("name is required")))
		return
	}

	cat, err := h.tagRepo.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.tagRepo.DeleteCategory(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sales / forecast handlers

// UploadSales ingests a sales CSV export. The file is fully validated
// before any write; by default the batch replaces the whole table (the
// export is a full dump), ?mode=append adds to it instead.
func (h *Handler) UploadSales(w http.ResponseWriter, r *http.Request) {
	var src io.Reader = r.Body
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		src = file
	}

	records, err := parseSalesCSV(src)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("mode") == "append" {
		err = h.salesRepo.AppendBatch(r.Context(), records)
	} else {
		err = h.salesRepo.ReloadAll(r.Context(), records)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ingested",
		"records": len(records),
	})
}

func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.forecaster.Train(r.Context(), req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "trained",
		"product_id": req.ProductID,
	})
}

func (h *Handler) TrainAllModels(w http.ResponseWriter, r *http.Request) {
	result, err := h.forecaster.TrainAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Predict returns the forecast for a product. Quantities are decimals
// rounded to two places; this endpoint never truncates to integers.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Days      int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Days == 0 {
		req.Days = 7
	}

	predictions, err := h.forecaster.Predict(r.Context(), req.ProductID, req.Days)
	if err != nil {
		if errors.Is(err, forecast.ErrNotTrained) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "model for " + req.ProductID + " not found, train it first",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product_id": req.ProductID,
		"forecast":   predictions,
	})
}

// TrainingProgress streams batch-training events over a websocket.
func (h *Handler) TrainingProgress(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}
