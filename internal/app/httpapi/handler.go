// Package httpapi exposes the application over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/StackLine-App/pokerbase/internal/app"
	"github.com/StackLine-App/pokerbase/internal/app/domain/challenge"
	"github.com/StackLine-App/pokerbase/internal/app/domain/hand"
	"github.com/StackLine-App/pokerbase/internal/app/domain/post"
	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/metrics"
	"github.com/StackLine-App/pokerbase/internal/app/services/analytics"
	"github.com/StackLine-App/pokerbase/internal/app/services/sessions"
	"github.com/StackLine-App/pokerbase/internal/app/services/stakes"
	"github.com/StackLine-App/pokerbase/internal/auth"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

type contextKey string

const principalKey contextKey = "principal"

// Handler serves the REST API.
type Handler struct {
	app    *app.Application
	tokens *auth.TokenIssuer
	log    *logger.Logger
	audit  *auditLog
	limits *rateLimiter

	upgrader websocket.Upgrader
}

// New constructs the API handler.
func New(application *app.Application, tokens *auth.TokenIssuer, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Handler{
		app:    application,
		tokens: tokens,
		log:    log,
		audit:  newAuditLog(200, nil),
		limits: newRateLimiter(50, 100),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetAuditFile streams the request audit trail to a JSONL file in addition
// to the in-memory ring.
func (h *Handler) SetAuditFile(path string) error {
	sink, err := newFileAuditSink(path)
	if err != nil {
		return err
	}
	h.audit.sink = sink
	return nil
}

// SetRateLimit overrides the default per-caller request budget.
func (h *Handler) SetRateLimit(perSecond, burst int) {
	if perSecond <= 0 || burst <= 0 {
		return
	}
	h.limits = newRateLimiter(perSecond, burst)
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/auth/signup", h.signUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signin", h.signIn).Methods(http.MethodPost)

	api := r.PathPrefix("/").Subrouter()
	api.Use(h.requireAuth, h.rateLimitMiddleware, h.auditMiddleware)

	api.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	api.HandleFunc("/auth/signout", h.signOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/verification-email", h.sendVerificationEmail).Methods(http.MethodPost)

	api.HandleFunc("/flow", h.flowSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/flow/refresh", h.flowRefresh).Methods(http.MethodPost)

	api.HandleFunc("/profiles", h.createProfile).Methods(http.MethodPost)
	api.HandleFunc("/profiles/me", h.myProfile).Methods(http.MethodGet)
	api.HandleFunc("/profiles/me", h.updateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/profiles/me/avatar", h.uploadAvatar).Methods(http.MethodPost)
	api.HandleFunc("/profiles/username/{username}", h.getProfileByUsername).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", h.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}/follow", h.follow).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{id}/follow", h.updateFollow).Methods(http.MethodPatch)
	api.HandleFunc("/profiles/{id}/follow", h.unfollow).Methods(http.MethodDelete)
	api.HandleFunc("/profiles/{id}/followers", h.followers).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}/following", h.following).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}/posts", h.listUserPosts).Methods(http.MethodGet)

	api.HandleFunc("/sessions", h.createSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions", h.listSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/live", h.startLiveSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.updateSession).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}", h.deleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/end", h.endLiveSession).Methods(http.MethodPost)

	api.HandleFunc("/analytics/dashboard", h.dashboard).Methods(http.MethodGet)

	api.HandleFunc("/posts", h.createPost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", h.getPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", h.deletePost).Methods(http.MethodDelete)
	api.HandleFunc("/feed", h.feed).Methods(http.MethodGet)

	api.HandleFunc("/groups", h.createGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups", h.listGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", h.getGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", h.renameGroup).Methods(http.MethodPatch)
	api.HandleFunc("/groups/{id}", h.deleteGroup).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id}/members", h.addMember).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/members/{memberID}", h.removeMember).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id}/messages", h.sendMessage).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/messages", h.listMessages).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/ws", h.subscribeGroup).Methods(http.MethodGet)

	api.HandleFunc("/hands", h.saveHand).Methods(http.MethodPost)
	api.HandleFunc("/hands", h.listHands).Methods(http.MethodGet)
	api.HandleFunc("/hands/{id}", h.getHand).Methods(http.MethodGet)
	api.HandleFunc("/hands/{id}", h.deleteHand).Methods(http.MethodDelete)

	api.HandleFunc("/stakes", h.proposeStake).Methods(http.MethodPost)
	api.HandleFunc("/stakes", h.listStakes).Methods(http.MethodGet)
	api.HandleFunc("/stakes/{id}/accept", h.acceptStake).Methods(http.MethodPost)
	api.HandleFunc("/stakes/{id}/decline", h.declineStake).Methods(http.MethodPost)
	api.HandleFunc("/stakes/{id}/settle", h.settleStake).Methods(http.MethodPost)

	api.HandleFunc("/challenges", h.createChallenge).Methods(http.MethodPost)
	api.HandleFunc("/challenges", h.listChallenges).Methods(http.MethodGet)
	api.HandleFunc("/challenges/{id}", h.getChallenge).Methods(http.MethodGet)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth validates the bearer token and stashes the principal.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		principal := auth.Principal{
			UID:           claims.Subject,
			Email:         claims.Email,
			EmailVerified: claims.Verified,
		}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(r *http.Request) auth.Principal {
	p, _ := r.Context().Value(principalKey).(auth.Principal)
	return p
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	UID   string `json:"uid"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	principal, err := h.app.Auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.issueToken(w, principal, http.StatusCreated)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	principal, err := h.app.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.issueToken(w, principal, http.StatusOK)
}

func (h *Handler) issueToken(w http.ResponseWriter, principal auth.Principal, status int) {
	token, err := h.tokens.Issue(principal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	h.app.Flow.Trigger()
	writeJSON(w, status, tokenResponse{Token: token, UID: principal.UID})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Auth.SignOut(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.app.Flow.Trigger()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Auth.SendVerificationEmail(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type flowResponse struct {
	State     string `json:"state"`
	UserID    string `json:"user_id,omitempty"`
	Transient bool   `json:"transient,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) flowSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := h.app.Flow.Snapshot()
	resp := flowResponse{
		State:     string(snap.State.Kind),
		UserID:    snap.State.UserID,
		Transient: snap.Transient,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) flowRefresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.app.Flow.Refresh(r.Context())
	if err != nil {
		// A refresh already in flight has queued a follow-up; report the
		// current state instead of failing.
		h.flowSnapshot(w, r)
		return
	}
	writeJSON(w, http.StatusOK, flowResponse{State: string(state.Kind), UserID: state.UserID})
}

type createProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.app.Profiles.Create(r.Context(), principalFrom(r).UID, req.Username, req.DisplayName, req.Bio)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.app.Flow.Trigger()
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) myProfile(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, principalFrom(r).UID)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, mux.Vars(r)["id"])
}

func (h *Handler) getProfileByUsername(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Profiles.GetByUsername(r.Context(), mux.Vars(r)["username"])
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.app.Profiles.Get(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.app.Profiles.Update(r.Context(), principalFrom(r).UID, req.DisplayName, req.Bio)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	p, err := h.app.Profiles.SetAvatar(r.Context(), principalFrom(r).UID, r.Header.Get("Content-Type"), r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type followRequest struct {
	NotifyOnPost bool `json:"notify_on_post"`
}

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.app.Profiles.Follow(r.Context(), principalFrom(r).UID, mux.Vars(r)["id"], req.NotifyOnPost)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) updateFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.app.Profiles.SetNotifyOnPost(r.Context(), principalFrom(r).UID, mux.Vars(r)["id"], req.NotifyOnPost)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Profiles.Unfollow(r.Context(), principalFrom(r).UID, mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Profiles.Followers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Profiles.Following(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) listUserPosts(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Posts.ListByUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type sessionRequest struct {
	GameType  string    `json:"game_type"`
	Stakes    string    `json:"stakes"`
	Location  string    `json:"location"`
	BuyIn     float64   `json:"buy_in"`
	Cashout   float64   `json:"cashout"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Notes     string    `json:"notes"`
}

func (r sessionRequest) input(userID string) sessions.CreateInput {
	return sessions.CreateInput{
		UserID:    userID,
		GameType:  session.GameType(r.GameType),
		Stakes:    r.Stakes,
		Location:  r.Location,
		BuyIn:     r.BuyIn,
		Cashout:   r.Cashout,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		Notes:     r.Notes,
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.app.Sessions.Create(r.Context(), req.input(principalFrom(r).UID))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) startLiveSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.app.Sessions.StartLive(r.Context(), req.input(principalFrom(r).UID))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type endSessionRequest struct {
	Cashout float64   `json:"cashout"`
	EndedAt time.Time `json:"ended_at"`
}

func (h *Handler) endLiveSession(w http.ResponseWriter, r *http.Request) {
	var req endSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.app.Sessions.EndLive(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID, req.Cashout, req.EndedAt)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Sessions.List(r.Context(), principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	rec, err := h.app.Sessions.Get(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.app.Sessions.Update(r.Context(), mux.Vars(r)["id"], req.input(principalFrom(r).UID))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Sessions.Delete(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID); err != nil {
		if errors.Is(err, sessions.ErrNotOwner) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, sessions.ErrNotOwner) {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := analytics.Filter{
		GameType:       session.GameType(q.Get("game_type")),
		Stakes:         q.Get("stakes"),
		Location:       q.Get("location"),
		Length:         analytics.SessionLength(q.Get("length")),
		ProfitableOnly: q.Get("profitable_only") == "true",
		TimeOfDay:      analytics.TimeOfDay(q.Get("time_of_day")),
	}
	if wd := q.Get("weekday"); wd != "" {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.EqualFold(d.String(), wd) {
				day := d
				f.Weekday = &day
				break
			}
		}
	}

	dash, err := h.app.Sessions.Dashboard(r.Context(), principalFrom(r).UID, analytics.ParseTimeRange(q.Get("range")), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

type createPostRequest struct {
	Body      string `json:"body"`
	ImageURL  string `json:"image_url"`
	SessionID string `json:"session_id"`
	HandID    string `json:"hand_id"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.app.Posts.Create(r.Context(), post.Post{
		UserID:    principalFrom(r).UID,
		Body:      req.Body,
		ImageURL:  req.ImageURL,
		SessionID: req.SessionID,
		HandID:    req.HandID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Posts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Posts.Delete(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Posts.Feed(r.Context(), principalFrom(r).UID, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type groupRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.app.Groups.CreateGame(r.Context(), principalFrom(r).UID, req.Name, req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Groups.ListGames(r.Context(), principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Groups.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) renameGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.app.Groups.RenameGame(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID, req.Name, req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Groups.DeleteGame(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberRequest struct {
	MemberID string `json:"member_id"`
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.app.Groups.AddMember(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID, req.MemberID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	g, err := h.app.Groups.RemoveMember(r.Context(), vars["id"], principalFrom(r).UID, vars["memberID"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type messageRequest struct {
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.app.Groups.SendMessage(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID, req.Body, req.ImageURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Groups.ListMessages(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// subscribeGroup upgrades to a websocket that receives the group's messages
// as they are posted.
func (h *Handler) subscribeGroup(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	member, err := h.app.Groups.IsMember(r.Context(), groupID, principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if !member {
		writeError(w, http.StatusForbidden, "not a member of this game")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	unsubscribe := h.app.Groups.Hub().Subscribe(groupID, conn)
	go func() {
		defer unsubscribe()
		defer conn.Close()
		// Reads are only used to detect the client going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Handler) saveHand(w http.ResponseWriter, r *http.Request) {
	var req hand.SavedHand
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = principalFrom(r).UID
	saved, err := h.app.Hands.Save(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) listHands(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Hands.List(r.Context(), principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getHand(w http.ResponseWriter, r *http.Request) {
	saved, err := h.app.Hands.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) deleteHand(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Hands.Delete(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stakeRequest struct {
	BackerID   string  `json:"backer_id"`
	SessionID  string  `json:"session_id"`
	Percentage float64 `json:"percentage"`
	Markup     float64 `json:"markup"`
}

func (h *Handler) proposeStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.app.Stakes.Propose(r.Context(), principalFrom(r).UID, req.BackerID, req.SessionID, req.Percentage, req.Markup)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handler) listStakes(w http.ResponseWriter, r *http.Request) {
	uid := principalFrom(r).UID
	if r.URL.Query().Get("role") == "backer" {
		list, err := h.app.Stakes.ListAsBacker(r.Context(), uid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}
	list, err := h.app.Stakes.ListAsPlayer(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) acceptStake(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Stakes.Accept(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) declineStake(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Stakes.Decline(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) settleStake(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Stakes.Settle(r.Context(), mux.Vars(r)["id"], principalFrom(r).UID)
	if err != nil {
		if errors.Is(err, stakes.ErrNotParticipant) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type challengeRequest struct {
	Kind     string    `json:"kind"`
	Title    string    `json:"title"`
	Target   float64   `json:"target"`
	Deadline time.Time `json:"deadline"`
}

func (h *Handler) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.app.Challenges.Create(r.Context(), principalFrom(r).UID, challenge.Kind(req.Kind), req.Title, req.Target, req.Deadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) listChallenges(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Challenges.List(r.Context(), principalFrom(r).UID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Challenges.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
