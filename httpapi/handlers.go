package httpapi

import (
	"net/http"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
)

type messageResponse struct {
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}

type loginResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

type sessionResponse struct {
	Message string           `json:"message"`
	Session wellness.Session `json:"session"`
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req wellness.RegisterRequest
	a.decode(w, r, &req)

	if err := a.engine.Register(r.Context(), req); err != nil {
		writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: wellness.MsgUserCreated, OK: true})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req wellness.LoginRequest
	a.decode(w, r, &req)

	token, err := a.engine.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{OK: true, Token: token})
}

func (a *api) saveDraft(w http.ResponseWriter, r *http.Request) {
	id, _ := wellness.IdentityFromContext(r.Context())

	var req wellness.SaveDraftRequest
	a.decode(w, r, &req)

	sess, err := a.engine.SaveDraft(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Message: wellness.MsgDraftSaved, Session: sess})
}

func (a *api) publish(w http.ResponseWriter, r *http.Request) {
	id, _ := wellness.IdentityFromContext(r.Context())

	var req wellness.PublishRequest
	a.decode(w, r, &req)

	sess, err := a.engine.Publish(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Message: wellness.MsgSessionPublished, Session: sess})
}

func (a *api) listPublished(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.engine.ListPublished(r.Context())
	if err != nil {
		writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *api) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := wellness.IdentityFromContext(r.Context())

	sessions, err := a.engine.ListMine(r.Context(), id)
	if err != nil {
		writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *api) getMine(w http.ResponseWriter, r *http.Request) {
	id, _ := wellness.IdentityFromContext(r.Context())

	sess, err := a.engine.GetMine(r.Context(), id, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
