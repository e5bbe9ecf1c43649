package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/credential"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/ui/authform"
	"github.com/nhle/focusflow/internal/ui/profile"
)

// sessionMsg reports the outcome of restoring or opening a session.
// A nil user with a nil error means nobody is signed in.
type sessionMsg struct {
	user  *model.User
	token string
	err   error
}

// authStatusMsg moves the auth screen to mode and shows a message.
type authStatusMsg struct {
	mode    authform.Mode
	message string
	isError bool
}

// introCheckedMsg tells whether the signed-in user still needs the intro.
type introCheckedMsg struct {
	seen bool
}

// profileResultMsg carries the outcome of a profile change that keeps
// the user signed in.
type profileResultMsg struct {
	user    *model.User
	message string
	err     error
}

// signedOutMsg ends the session, optionally explaining why.
type signedOutMsg struct {
	message string
}

// restoreSession validates the token saved in the keyring.
func (m Model) restoreSession() tea.Cmd {
	sessions := m.sessions
	authSvc := m.auth
	return func() tea.Msg {
		if sessions == nil {
			return sessionMsg{}
		}
		token, err := sessions.Load()
		if errors.Is(err, credential.ErrNoSession) {
			return sessionMsg{}
		}
		if err != nil {
			return sessionMsg{err: err}
		}
		user, err := authSvc.Authenticate(context.Background(), token)
		if err != nil {
			// Stale or revoked: start signed out.
			_ = sessions.Clear()
			return sessionMsg{}
		}
		return sessionMsg{user: user, token: token}
	}
}

// submitAuth runs the action behind a completed auth form.
func (m Model) submitAuth(msg authform.SubmitMsg) tea.Cmd {
	authSvc := m.auth
	sessions := m.sessions
	return func() tea.Msg {
		ctx := context.Background()
		fail := func(err error) tea.Msg {
			return authStatusMsg{mode: msg.Mode, message: userMessage(err), isError: true}
		}

		switch msg.Mode {
		case authform.ModeLogin:
			sess, user, err := authSvc.SignIn(ctx, msg.Email, msg.Password)
			if errors.Is(err, auth.ErrEmailNotVerified) {
				return authStatusMsg{mode: authform.ModeVerify, message: userMessage(err), isError: true}
			}
			if err != nil {
				return fail(err)
			}
			if sessions != nil {
				if err := sessions.Save(sess.Token); err != nil {
					return sessionMsg{user: user, token: sess.Token, err: err}
				}
			}
			return sessionMsg{user: user, token: sess.Token}

		case authform.ModeSignUp:
			if _, err := authSvc.SignUp(ctx, msg.Name, msg.Email, msg.Password); err != nil {
				return fail(err)
			}
			return authStatusMsg{mode: authform.ModeVerify, message: "Account created. Enter the code we emailed you."}

		case authform.ModeRecover:
			if err := authSvc.RequestPasswordReset(ctx, msg.Email); err != nil {
				return fail(err)
			}
			return authStatusMsg{mode: authform.ModeReset, message: "If the address has an account, a reset code is on its way."}

		case authform.ModeReset:
			if err := authSvc.ResetPassword(ctx, msg.Token, msg.Password); err != nil {
				return fail(err)
			}
			return authStatusMsg{mode: authform.ModeLogin, message: "Password updated. Sign in with the new one."}

		case authform.ModeVerify:
			if _, err := authSvc.VerifyEmail(ctx, msg.Token); err != nil {
				return fail(err)
			}
			return authStatusMsg{mode: authform.ModeLogin, message: "Email verified. You can sign in now."}
		}
		return nil
	}
}

// submitProfile runs a profile action for the signed-in user.
func (m Model) submitProfile(msg profile.SubmitMsg) tea.Cmd {
	authSvc := m.auth
	userID := m.user.ID
	return func() tea.Msg {
		ctx := context.Background()
		switch msg.Action {
		case profile.ActionUpdateName:
			user, err := authSvc.UpdateName(ctx, userID, msg.Value)
			return profileResultMsg{user: user, message: "Name updated.", err: err}

		case profile.ActionChangeEmail:
			if err := authSvc.RequestEmailChange(ctx, userID, msg.Value); err != nil {
				return profileResultMsg{err: err}
			}
			return signedOutMsg{message: "Verify your new address with the emailed code, then sign in again."}

		case profile.ActionChangePassword:
			if err := authSvc.UpdatePassword(ctx, userID, msg.Value); err != nil {
				return profileResultMsg{err: err}
			}
			return profileResultMsg{message: "Password changed."}

		case profile.ActionSignOut:
			return signedOutMsg{}

		case profile.ActionDeleteAccount:
			if err := authSvc.DeleteAccount(ctx, userID); err != nil {
				return profileResultMsg{err: err}
			}
			return signedOutMsg{message: "Your account was deleted."}
		}
		return nil
	}
}

// checkIntro asks whether the user has already seen the intro.
func (m Model) checkIntro() tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	logger := m.logger
	return func() tea.Msg {
		seen, err := svc.HasSeenIntro(context.Background(), owner)
		if err != nil {
			logger.Warn("reading intro flag failed", "error", err)
			return introCheckedMsg{seen: true}
		}
		return introCheckedMsg{seen: seen}
	}
}

// finishIntro records that the intro was shown.
func (m Model) finishIntro(skipped bool) tea.Cmd {
	svc := m.tasks
	owner := m.user.ID
	logger := m.logger
	return func() tea.Msg {
		if err := svc.FinishIntro(context.Background(), owner, skipped); err != nil {
			logger.Warn("saving intro flag failed", "error", err)
		}
		return nil
	}
}
