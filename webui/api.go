package webui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pagegen/appstate"
	"pagegen/core"
	"pagegen/db"
	"pagegen/domain"
	"pagegen/history"
	"pagegen/logging"
	"pagegen/metrics"
	"pagegen/slots"
	"pagegen/snapshot"

	"go.uber.org/zap"
)

// API groups the HTTP handlers around the assembled application components.
// All mutating handlers funnel through the state machine, so the mutex there
// is the only synchronization the handlers need.
type API struct {
	machine     *appstate.Machine
	timeline    *history.Timeline
	saved       *history.Service
	credentials *core.CredentialStore
	stats       *metrics.Store
	logger      *logging.Logger
}

// NewAPI creates the handler set. stats may be nil, in which case the stats
// endpoint reports an empty snapshot.
func NewAPI(machine *appstate.Machine, timeline *history.Timeline, saved *history.Service, credentials *core.CredentialStore, stats *metrics.Store, logger *logging.Logger) *API {
	if stats == nil {
		stats = metrics.NewStore(1)
	}
	return &API{
		machine:     machine,
		timeline:    timeline,
		saved:       saved,
		credentials: credentials,
		stats:       stats,
		logger:      logger.Named("api"),
	}
}

// RegisterRoutes attaches every handler to the mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	mux.HandleFunc("GET /api/state", a.handleState)
	mux.HandleFunc("POST /api/generate", a.handleGenerate)
	mux.HandleFunc("POST /api/reset", a.handleReset)

	mux.HandleFunc("POST /api/images/reorder", a.handleReorderImages)
	mux.HandleFunc("POST /api/images/replace", a.handleReplaceImage)
	mux.HandleFunc("POST /api/images/main", a.handleSelectMain)
	mux.HandleFunc("POST /api/images/regenerate", a.handleRegenerateImage)

	mux.HandleFunc("POST /api/copy/field", a.handleReplaceCopyField)
	mux.HandleFunc("POST /api/copy/refine", a.handleRefineCopyField)

	mux.HandleFunc("POST /api/undo", a.handleUndo)
	mux.HandleFunc("POST /api/redo", a.handleRedo)

	mux.HandleFunc("GET /api/history", a.handleHistoryList)
	mux.HandleFunc("POST /api/history", a.handleHistorySave)
	mux.HandleFunc("GET /api/history/{id}", a.handleHistoryGet)
	mux.HandleFunc("POST /api/history/{id}/restore", a.handleHistoryRestore)
	mux.HandleFunc("DELETE /api/history/{id}", a.handleHistoryDelete)

	mux.HandleFunc("GET /api/share", a.handleShareEncode)
	mux.HandleFunc("POST /api/share/apply", a.handleShareApply)

	mux.HandleFunc("GET /api/settings/credentials", a.handleCredentialsGet)
	mux.HandleFunc("PUT /api/settings/credentials", a.handleCredentialsPut)
}

// stateResponse is the full picture the front end renders from: the state
// itself, the slot layout derived from it, and the undo/redo availability.
type stateResponse struct {
	State   appstate.State `json:"state"`
	Layout  slots.Layout   `json:"layout"`
	CanUndo bool           `json:"canUndo"`
	CanRedo bool           `json:"canRedo"`
}

func (a *API) currentStateResponse() stateResponse {
	state := a.machine.Snapshot()
	return stateResponse{
		State:   state,
		Layout:  slots.Allocate(state.GeneratedImages, state.GeneratedCopy, state.Request.HasPromotion()),
		CanUndo: a.timeline.CanUndo(),
		CanRedo: a.timeline.CanRedo(),
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.stats.Snapshot(20))
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "product name and description are required")
		return
	}

	if err := a.machine.Submit(r.Context(), req); err != nil {
		a.logger.Warn("generation failed", zap.String("product", req.Name), zap.Error(err))
		a.writeSubmitFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	a.machine.Reset()
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleReorderImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.machine.ReorderImages(req.From, req.To); err != nil {
		a.writeEditFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleReplaceImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int                   `json:"index"`
		Image domain.GeneratedImage `json:"image"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Image.URL == "" {
		writeError(w, http.StatusBadRequest, "replacement image has no url")
		return
	}
	if err := a.machine.ReplaceImage(req.Index, req.Image); err != nil {
		a.writeEditFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleSelectMain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.machine.SelectMain(req.Index); err != nil {
		a.writeEditFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleRegenerateImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index       int    `json:"index"`
		Instruction string `json:"instruction"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.machine.RegenerateImage(r.Context(), req.Index, req.Instruction); err != nil {
		a.logger.Warn("regeneration failed", zap.Int("index", req.Index), zap.Error(err))
		a.writeEditFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

// handleReplaceCopyField applies a user-edited value to a single copy field.
// The value replaces the field wholesale; the handler never merges.
func (a *API) handleReplaceCopyField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field domain.CopyField `json:"field"`
		Value json.RawMessage  `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := a.machine.Snapshot()
	if state.GeneratedCopy == nil {
		writeError(w, http.StatusConflict, "no copy document to edit")
		return
	}
	next := state.GeneratedCopy.Clone()
	if err := next.ApplyField(req.Field, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.machine.ReplaceCopy(next); err != nil {
		a.writeEditFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleRefineCopyField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field       domain.CopyField `json:"field"`
		Instruction string           `json:"instruction"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Instruction == "" {
		writeError(w, http.StatusBadRequest, "refinement instruction is required")
		return
	}
	if err := a.machine.RefineCopyField(r.Context(), req.Field, req.Instruction); err != nil {
		a.logger.Warn("copy refinement failed", zap.String("field", string(req.Field)), zap.Error(err))
		a.writeEditFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleUndo(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := a.timeline.Undo()
	if ok {
		a.machine.Restore(snapshot)
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleRedo(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := a.timeline.Redo()
	if ok {
		a.machine.Restore(snapshot)
	}
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	items, err := a.saved.List(r.Context())
	if err != nil {
		a.logger.Error("history list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read saved history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := a.saved.Save(r.Context(), a.machine.Snapshot(), req.DisplayName)
	if err != nil {
		if errors.Is(err, snapshot.ErrNothingDisplayable) {
			writeError(w, http.StatusConflict, "nothing to save: generate a page first")
			return
		}
		a.logger.Error("history save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save to history")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *API) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	state, err := a.saved.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeHistoryLoadFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": state})
}

// handleHistoryRestore loads a saved item into the live machine. The restore
// counts as a committed state, so it lands on the undo timeline.
func (a *API) handleHistoryRestore(w http.ResponseWriter, r *http.Request) {
	state, err := a.saved.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeHistoryLoadFailure(w, err)
		return
	}
	a.machine.Restore(state)
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.saved.Delete(r.Context(), r.PathValue("id")); err != nil {
		a.writeHistoryLoadFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleShareEncode(w http.ResponseWriter, r *http.Request) {
	token, oversize, err := snapshot.EncodeShare(a.machine.Snapshot())
	if err != nil {
		if errors.Is(err, snapshot.ErrNothingDisplayable) {
			writeError(w, http.StatusConflict, "nothing to share: generate a page first")
			return
		}
		a.logger.Error("share encode failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not build share link")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":    token,
		"oversize": oversize,
	})
}

// handleShareApply decodes a share token and loads it into the machine,
// replacing whatever state was there.
func (a *API) handleShareApply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := snapshot.DecodeShare(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "share token is invalid or damaged")
		return
	}
	a.machine.Restore(state)
	writeJSON(w, http.StatusOK, a.currentStateResponse())
}

func (a *API) handleCredentialsGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"configured": a.credentials.Configured()})
}

// handleCredentialsPut sets or clears provider keys. Only providers present
// in the body are touched; an empty string clears the key.
func (a *API) handleCredentialsPut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keys map[core.ProviderName]string `json:"keys"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, http.StatusBadRequest, "no provider keys in request")
		return
	}
	for provider, key := range req.Keys {
		switch provider {
		case core.ProviderImage, core.ProviderText, core.ProviderSearch, core.ProviderHosting:
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", provider))
			return
		}
		if key == "" {
			a.credentials.Clear(provider)
		} else {
			a.credentials.Set(provider, key)
		}
		a.logger.Info("credential updated", zap.String("provider", string(provider)), zap.Bool("cleared", key == ""))
	}
	writeJSON(w, http.StatusOK, map[string]any{"configured": a.credentials.Configured()})
}

// writeSubmitFailure renders a pipeline failure from a full generate run.
// Fatal provider conditions get their own status codes so the front end can
// surface the right call to action.
func (a *API) writeSubmitFailure(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, appstate.ErrWrongPhase):
		writeError(w, http.StatusConflict, "a generation is already in progress")
		return
	case core.IsCreditsExhausted(err):
		status = http.StatusPaymentRequired
	case core.IsAuthOrConfig(err):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{
		"error": appstate.UserMessage(err),
		"kind":  string(core.KindOf(err)),
	})
}

// writeEditFailure renders a failure from a preview edit operation.
func (a *API) writeEditFailure(w http.ResponseWriter, err error) {
	var failure *core.Failure
	switch {
	case errors.Is(err, appstate.ErrWrongPhase):
		writeError(w, http.StatusConflict, "no preview to edit")
	case core.IsCreditsExhausted(err), core.IsAuthOrConfig(err):
		a.writeSubmitFailure(w, err)
	case errors.As(err, &failure):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "The provider request failed. The previous result is unchanged.",
			"kind":  string(failure.Kind),
		})
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (a *API) writeHistoryLoadFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no saved item with that id")
		return
	}
	a.logger.Error("history access failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "could not access saved history")
}

// decodeBody decodes a JSON request body, rejecting unknown fields so typos
// in the front end fail loudly instead of silently doing nothing.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
