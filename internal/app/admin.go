package app

import (
	"encoding/json"
	"net/http"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"

	"github.com/gorilla/mux"
)

// AdminHandler serves the operational endpoints of a running application:
//
//	GET /metrics                 Prometheus metrics
//	GET /collaborators           running collaborators
//	GET /collaborators/{alias}   one running collaborator
func (a *Application) AdminHandler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/collaborators", a.handleCollaborators).Methods(http.MethodGet)
	r.HandleFunc("/collaborators/{alias}", a.handleCollaborator).Methods(http.MethodGet)
	return r
}

func (a *Application) handleCollaborators(w http.ResponseWriter, r *http.Request) {
	running := a.Running()
	if running == nil {
		running = []api.Collaborator{}
	}
	writeJSON(w, http.StatusOK, running)
}

func (a *Application) handleCollaborator(w http.ResponseWriter, r *http.Request) {
	alias := mux.Vars(r)["alias"]
	for _, c := range a.Running() {
		if c.Alias == alias {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "collaborator not running", "alias": alias})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Admin", "Failed to write response: %v", err)
	}
}
