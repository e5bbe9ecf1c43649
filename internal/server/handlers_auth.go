package server

import (
	"net/http"
	"time"

	"github.com/nhle/focusflow/internal/model"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      userPayload `json:"user"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
}

// userPayload is a user with the derived avatar URL.
type userPayload struct {
	*model.User
	AvatarURL string `json:"avatar_url"`
}

func newUserPayload(u *model.User) userPayload {
	return userPayload{User: u, AvatarURL: u.AvatarURL()}
}

// POST /api/v1/signup
func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.auth.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserPayload(user))
}

// POST /api/v1/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, user, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      newUserPayload(user),
	})
}

// POST /api/v1/verify
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.auth.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserPayload(user))
}

// POST /api/v1/password/reset
func (s *Server) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// POST /api/v1/password/reset/confirm
func (s *Server) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/me
func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserPayload(currentUser(r)))
}

// PATCH /api/v1/me applies each present field in turn. An email change
// only takes effect after verification.
func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	user := currentUser(r)

	if req.DisplayName != nil {
		updated, err := s.auth.UpdateName(ctx, user.ID, *req.DisplayName)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		user = updated
	}
	if req.Password != nil {
		if err := s.auth.UpdatePassword(ctx, user.ID, *req.Password); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	status := http.StatusOK
	if req.Email != nil {
		if err := s.auth.RequestEmailChange(ctx, user.ID, *req.Email); err != nil {
			s.writeError(w, r, err)
			return
		}
		user.PendingEmail = *req.Email
		status = http.StatusAccepted
	}
	writeJSON(w, status, newUserPayload(user))
}

// DELETE /api/v1/me
func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.DeleteAccount(r.Context(), currentUser(r).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/notifications?unread=true
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	list, err := s.tasks.Inbox(r.Context(), currentUser(r).ID, unread)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/v1/notifications/{id}/read
func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.MarkRead(r.Context(), currentUser(r).ID, pathID(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
