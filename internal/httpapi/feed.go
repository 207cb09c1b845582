package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardana28/Nofapers-Tracker/internal/apierrors"
	"github.com/wardana28/Nofapers-Tracker/internal/feed"
)

type createPostRequest struct {
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// RegisterFeedRoutes exposes the social-feed collaborator through the typed
// client. The feed backend owns authentication via its cookie session, so
// these routes sit outside the tracker's auth group. A nil client means no
// backend is configured and every route answers 502.
func RegisterFeedRoutes(r chi.Router, client *feed.Client) {
	r.Route("/v1/feed", func(r chi.Router) {
		r.Get("/me", feedMe(client))
		r.Get("/posts", feedListPosts(client))
		r.Post("/posts", feedCreatePost(client))
		r.Post("/posts/{postID}/comments", feedAddComment(client))
		r.Get("/auth/url", feedAuthURL(client))
		r.Post("/logout", feedLogout(client))
	})
}

func requireFeed(w http.ResponseWriter, r *http.Request, client *feed.Client) bool {
	if client == nil {
		apierrors.Write(w, r, "bad_gateway", "feed backend not configured")
		return false
	}
	return true
}

// writeFeedError relays the backend's verdict where it has one; transport
// failures surface as a transient 502 the user retries by re-acting.
func writeFeedError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *feed.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			apierrors.Write(w, r, "unauthorized", "feed session required")
		case http.StatusForbidden:
			apierrors.Write(w, r, "forbidden", "feed action not allowed")
		case http.StatusNotFound:
			apierrors.Write(w, r, "not_found", "feed resource not found")
		case http.StatusBadRequest:
			apierrors.Write(w, r, "bad_request", "feed rejected the request")
		default:
			apierrors.Write(w, r, "bad_gateway", "feed backend error")
		}
		return
	}
	apierrors.Write(w, r, "bad_gateway", "feed backend unreachable")
}

func feedMe(client *feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireFeed(w, r, client) {
			return
		}

		user, err := client.Me(r.Context())
		if err != nil {
			writeFeedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]*feed.User{"user": user})
	}
}

func feedListPosts(client *feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireFeed(w, r, client) {
			return
		}

		posts, err := client.ListPosts(r.Context())
		if err != nil {
			writeFeedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)
	}
}

func feedCreatePost(client *feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireFeed(w, r, client) {
			return
		}

		var req createPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			apierrors.Write(w, r, "bad_request", "post content required")
			return
		}

		id, err := client.CreatePost(r.Context(), req.Content, req.Image)
		if err != nil {
			writeFeedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func feedAddComment(client *feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireFeed(w, r, client) {
			return
		}

		var req addCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
			apierrors.Write(w, r, "bad_request", "comment content required")
			return
		}

		if err := client.AddComment(r.Context(), chi.URLParam(r, "postID"), req.Content); err != nil {
			writeFeedError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func feedAuthURL(client *feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireFeed(w, r, client) {
			return
		}

		url, err := client.GoogleAuthURL(r.Context())
		if err != nil {
			writeFeedError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

func feedLogout(client *feed.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireFeed(w, r, client) {
			return
		}

		if err := client.Logout(r.Context()); err != nil {
			writeFeedError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
