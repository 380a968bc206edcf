package httpapi

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.Health)

	// POST /jobs (ingest), GET /jobs?status=...&limit=...
	mux.HandleFunc("/jobs", h.Jobs)

	// GET /jobs/review — очередь на ручную проверку, HIGH раньше NORMAL
	mux.HandleFunc("/jobs/review", h.ReviewQueue)

	// GET /jobs/{id} и POST /jobs/{id}/{approve|reject|request-edit|publish}
	// Важно: trailing slash, чтобы handler мог TrimPrefix("/jobs/")
	mux.HandleFunc("/jobs/", h.Job)

	// POST /discover
	mux.HandleFunc("/discover", h.Discover)

	return mux
}
