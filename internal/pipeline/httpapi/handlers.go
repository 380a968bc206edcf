package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/service"
)

const defaultListLimit = 50

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.ingest(w, r)
	case http.MethodGet:
		h.listByStatus(w, r)
	default:
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	job, err := h.svc.IngestCandidate(r.Context(), clientCandidate(req))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toJobResponse(job))
}

func (h *Handler) listByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	if status == "" {
		writeErrorJSON(w, http.StatusBadRequest, "missing status")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorJSON(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	jobs, err := h.svc.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponses(jobs))
}

// ReviewQueue returns jobs awaiting manual review. The repository gives
// oldest-first; here HIGH priority floats above NORMAL within that order.
func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobs, err := h.svc.ListByStatus(r.Context(), domain.PendingApproval, defaultListLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return priorityRank(jobs[i].ReviewPriority) < priorityRank(jobs[j].ReviewPriority)
	})

	writeJSON(w, http.StatusOK, toJobResponses(jobs))
}

// Job dispatches /jobs/{id} and /jobs/{id}/{action}.
func (h *Handler) Job(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if rest == "" || rest == r.URL.Path {
		writeErrorJSON(w, http.StatusBadRequest, "missing id")
		return
	}

	idStr, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.getJob(w, r, id)
		return
	}

	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.reviewAction(w, r, id, action)
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	job, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (h *Handler) reviewAction(w http.ResponseWriter, r *http.Request, id uuid.UUID, action string) {
	defer r.Body.Close()

	var req struct {
		Actor string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var (
		job *models.JobRecord
		err error
	)
	switch action {
	case "approve":
		job, err = h.svc.Approve(r.Context(), id, req.Actor)
	case "reject":
		job, err = h.svc.Reject(r.Context(), id, req.Actor)
	case "request-edit":
		job, err = h.svc.RequestEdit(r.Context(), id, req.Actor)
	case "publish":
		job, err = h.svc.Publish(r.Context(), id, req.Actor)
	default:
		writeErrorJSON(w, http.StatusNotFound, "unknown action")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Queries <= 0 {
		req.Queries = 3
	}
	if req.PerQuery <= 0 {
		req.PerQuery = 5
	}

	ingested, err := h.svc.DiscoverAndIngest(r.Context(), req.Topic, req.Queries, req.PerQuery)
	if err != nil {
		// Частичный результат при квоте все равно отдаем клиенту.
		if errors.Is(err, domain.ErrQuotaExceeded) {
			writeJSON(w, http.StatusTooManyRequests, DiscoverResponse{Ingested: ingested})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DiscoverResponse{Ingested: ingested})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, models.ErrDuplicateSource):
		writeErrorJSON(w, http.StatusConflict, "source already has an active job")
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeErrorJSON(w, http.StatusConflict, "invalid status transition")
	default:
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func priorityRank(p *domain.Priority) int {
	if p != nil && *p == domain.PriorityHigh {
		return 0
	}
	return 1
}
