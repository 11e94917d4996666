package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/version"
	"github.com/muurk/bootmaster/internal/workspace"
)

//go:embed static
var staticFiles embed.FS

// Handler returns the console's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		JSONResponse(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"version":    version.Version,
			"workspaces": s.manager.Len(),
		})
	})

	mux.HandleFunc("GET /api/messages", WithLogging(s.getMessages))

	mux.HandleFunc("POST /api/sessions", WithLogging(s.createSession))
	mux.HandleFunc("GET /api/sessions/{id}", WithLogging(s.getSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", WithLogging(s.deleteSession))
	mux.HandleFunc("PUT /api/sessions/{id}/language", WithLogging(s.setLanguage))

	// provisioning
	mux.HandleFunc("PUT /api/sessions/{id}/settings", WithLogging(s.putSettings))
	mux.HandleFunc("POST /api/sessions/{id}/start", WithLogging(s.startRun))
	mux.HandleFunc("POST /api/sessions/{id}/restart", WithLogging(s.restartRun))
	mux.HandleFunc("POST /api/sessions/{id}/abort", WithLogging(s.abortRun))

	// catalog
	mux.HandleFunc("GET /api/sessions/{id}/devices", WithLogging(s.listDevices))
	mux.HandleFunc("POST /api/sessions/{id}/rescan", WithLogging(s.rescan))

	// advisor
	mux.HandleFunc("POST /api/sessions/{id}/ask", WithLogging(s.ask))
	mux.HandleFunc("POST /api/sessions/{id}/reset", WithLogging(s.resetAdvisor))

	mux.HandleFunc("GET /api/sessions/{id}/events", WithLogging(s.streamEvents))

	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /", http.FileServer(http.FS(static)))

	return mux
}

// workspaceFor resolves the {id} path value, writing a 404 when unknown.
func (s *Server) workspaceFor(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		ErrorJSON(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return ws, true
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrLimitReached):
		return http.StatusServiceUnavailable
	case errors.Is(err, provisioning.ErrMissingImage),
		errors.Is(err, provisioning.ErrInvalidSettings),
		errors.Is(err, catalog.ErrUnknownDevice),
		errors.Is(err, advisor.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, provisioning.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, provisioning.ErrRunInProgress),
		errors.Is(err, provisioning.ErrCatalogBusy),
		errors.Is(err, advisor.ErrAwaitingReply),
		errors.Is(err, advisor.ErrReplyDiscarded):
		return http.StatusConflict
	case errors.Is(err, provisioning.ErrClosed),
		errors.Is(err, catalog.ErrClosed),
		errors.Is(err, advisor.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	ErrorJSON(w, errorStatus(err), err.Error())
}

type languageRequest struct {
	Lang string `json:"lang"`
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	lang := locale.Resolve(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	JSONResponse(w, http.StatusOK, locale.For(lang))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ws, err := s.manager.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Lang != "" {
		ws.SetLanguage(locale.Resolve(req.Lang))
	}
	JSONResponse(w, http.StatusCreated, ws.State())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	JSONResponse(w, http.StatusOK, ws.State())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	var req languageRequest
	if err := ParseJSONBody(r, &req); err != nil || strings.TrimSpace(req.Lang) == "" {
		ErrorJSON(w, http.StatusBadRequest, "a language is required")
		return
	}
	ws.SetLanguage(locale.Resolve(req.Lang))
	JSONResponse(w, http.StatusOK, ws.State())
}

// settingsRequest is a partial update; omitted fields keep their value.
type settingsRequest struct {
	DeviceID   *string `json:"deviceId"`
	ImagePath  *string `json:"imagePath"`
	Partition  *string `json:"partitionScheme"`
	Firmware   *string `json:"targetSystem"`
	FileSystem *string `json:"fileSystem"`
}

func (req settingsRequest) apply(current provisioning.Settings) (provisioning.Settings, error) {
	next := current
	if req.DeviceID != nil {
		next.DeviceID = strings.TrimSpace(*req.DeviceID)
	}
	if req.ImagePath != nil {
		next.ImagePath = *req.ImagePath
	}
	if req.Partition != nil {
		p, err := provisioning.ParsePartitionScheme(*req.Partition)
		if err != nil {
			return current, err
		}
		next.Partition = p
	}
	if req.Firmware != nil {
		f, err := provisioning.ParseTargetFirmware(*req.Firmware)
		if err != nil {
			return current, err
		}
		next.Firmware = f
	}
	if req.FileSystem != nil {
		fsys, err := provisioning.ParseFileSystem(*req.FileSystem)
		if err != nil {
			return current, err
		}
		next.FileSystem = fsys
	}
	return next, nil
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	settings, err := req.apply(ws.Simulator.Snapshot().Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Simulator.Configure(settings); err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, ws.Simulator.Snapshot())
}

type startRequest struct {
	// Confirm answers the erase prompt
	Confirm bool `json:"confirm"`
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	var req startRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	confirmer := provisioning.ConfirmFunc(func(string) bool { return req.Confirm })
	if err := ws.Simulator.Start(confirmer); err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusAccepted, ws.Simulator.Snapshot())
}

func (s *Server) restartRun(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	if err := ws.Simulator.Restart(); err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, ws.Simulator.Snapshot())
}

type abortRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) abortRun(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	var req abortRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = ws.Messages().Cancelled
	}
	if !ws.Simulator.Fail(req.Reason) {
		ErrorJSON(w, http.StatusConflict, "no provisioning run in progress")
		return
	}
	JSONResponse(w, http.StatusOK, ws.Simulator.Snapshot())
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	JSONResponse(w, http.StatusOK, ws.Catalog.Snapshot())
}

type rescanResponse struct {
	Started bool `json:"started"`
	catalog.Snapshot
}

func (s *Server) rescan(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	started := ws.Catalog.StartRescan(nil)
	JSONResponse(w, http.StatusAccepted, rescanResponse{Started: started, Snapshot: ws.Catalog.Snapshot()})
}

type askRequest struct {
	Text string `json:"text"`
}

type askResponse struct {
	Reply      advisor.Turn       `json:"reply"`
	Transcript advisor.Transcript `json:"transcript"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := ParseJSONBody(r, &req); err != nil {
		ErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	turn, err := ws.Advisor.Ask(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, askResponse{Reply: turn, Transcript: ws.Advisor.Transcript()})
}

func (s *Server) resetAdvisor(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspaceFor(w, r)
	if !ok {
		return
	}
	ws.Advisor.Reset()
	JSONResponse(w, http.StatusOK, ws.State())
}
