package handler

import "net/http"

// Health answers liveness probes. It has no dependencies and never fails,
// regardless of how broken the mail configuration is.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
