/*
Package handler provides the HTTP handlers and routing for the chat server.

This file contains the pull-style collaborator surface over the chat core:
recent message history and the online-users snapshot, for clients that
prefer a fetch over the welcome push.
*/
package handler

import (
	"net/http"
	"strconv"

	"pulsechat/internal/pkg/errs"
	"pulsechat/internal/pkg/resp"
)

const (
	// defaultHistoryLimit matches the welcome push.
	defaultHistoryLimit = 50

	// maxHistoryLimit caps a single history request.
	maxHistoryLimit = 1000
)

// HandleRecentMessages returns up to ?limit= recent messages in
// chronological order.
func HandleRecentMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := identityFromRequest(deps, r); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		limit := defaultHistoryLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 1 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = parsed
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": deps.Hub.History().Recent(limit),
		})
	}
}

// HandleOnlineUsers returns the presence snapshot in registration order.
func HandleOnlineUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := identityFromRequest(deps, r); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"users": deps.Hub.Presence().Snapshot(),
		})
	}
}
