package logsource

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/five82/scout/internal/dataaccess"
)

// Handler serves src at ChunkPath using the protocol Client speaks.
func Handler(src dataaccess.Fetcher, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+ChunkPath, func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(r.URL.Query())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		res, err := src.FetchChunk(r.Context(), req)
		if err != nil {
			if dataaccess.IsAborted(err) {
				return
			}
			logger.Warn("chunk request failed", "direction", req.Direction, "error", err)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, encodeResult(res))
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
