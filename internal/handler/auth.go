// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"storefront-go/internal/auth"
	"storefront-go/internal/middleware"
	"storefront-go/internal/model"
	"storefront-go/internal/render"
	"storefront-go/internal/service"
	"storefront-go/internal/store"
)

// AuthHandler handles administrator login and logout.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	events          *service.EventService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
		events:          events,
	}
}

// LoginForm displays the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	// Already logged in, go straight to the admin menu
	if middleware.IsAuthenticated(h.sessionManager, r) {
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{
		Title: "Login",
	}); err != nil {
		logAndInternalError(w, r, "failed to render login page", "error", err)
	}
}

// Login processes a login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	clientIP := middleware.GetClientIP(r)

	if username == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Username and password are required")
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
		slog.Warn("login attempt on locked account",
			"category", model.EventCategoryAuth, "username", username, "ip", clientIP)
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
		return
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("failed to look up user", "error", err)
		}
		// Record the attempt even for unknown usernames so the lockout
		// cannot be used to probe which accounts exist.
		h.recordFailure(w, r, username, clientIP)
		return
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		h.recordFailure(w, r, username, clientIP)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(username)

	// Upgrade the stored hash when parameters have changed
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				slog.Warn("failed to rehash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Warn("failed to update last login", "error", err, "user_id", user.ID)
	}

	// New session token on privilege change
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, "failed to renew session token", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "category", model.EventCategoryAuth, "username", user.Username, "ip", clientIP)
	h.logAuthEvent(r.Context(), model.EventLevelInfo, "user logged in", &user.ID, clientIP)

	flashSuccess(w, r, h.renderer, redirectAdmin, "Welcome back, "+user.Username)
}

// Logout ends the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	clientIP := middleware.GetClientIP(r)

	if userID != 0 {
		h.logAuthEvent(r.Context(), model.EventLevelInfo, "user logged out", &userID, clientIP)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, r, "failed to destroy session", "error", err)
		return
	}

	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been logged out", "info")
}

// recordFailure registers a failed login attempt and shows a generic error.
// The message does not reveal whether the username exists.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, r *http.Request, username, clientIP string) {
	locked, lockDuration := h.loginProtection.RecordFailedAttempt(username)

	slog.Warn("failed login attempt",
		"category", model.EventCategoryAuth, "username", username, "ip", clientIP, "locked", locked)
	h.logAuthEvent(r.Context(), model.EventLevelWarning, "failed login attempt", nil, clientIP)

	if locked {
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Too many failed attempts. Account locked for %s.", formatDuration(lockDuration)))
		return
	}

	msg := "Invalid username or password"
	if remaining := h.loginProtection.GetRemainingAttempts(username); remaining <= 3 {
		msg = fmt.Sprintf("Invalid username or password. %d attempts remaining.", remaining)
	}
	flashError(w, r, h.renderer, redirectLogin, msg)
}

func (h *AuthHandler) logAuthEvent(ctx context.Context, level, message string, userID *int64, ip string) {
	if h.events == nil {
		return
	}
	if err := h.events.LogAuthEvent(ctx, level, message, userID, ip, nil); err != nil {
		slog.Warn("failed to write auth event", "error", err)
	}
}

// formatDuration renders a duration in whole minutes or seconds for messages.
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		minutes := int(d.Round(time.Minute).Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", seconds)
}
