package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wardana28/Nofapers-Tracker/internal/apierrors"
	"github.com/wardana28/Nofapers-Tracker/internal/auth"
	"github.com/wardana28/Nofapers-Tracker/internal/streak"
)

type relapseRequest struct {
	Note string `json:"note"`
}

type relapseResponse struct {
	Event    streak.RelapseEvent `json:"event"`
	Snapshot *streak.Snapshot    `json:"snapshot"`
}

type journalRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// RegisterRoutes mounts every tracker endpoint on the supplied router.
func RegisterRoutes(r chi.Router, service streak.Service) {
	r.Route("/v1/streak", func(r chi.Router) {
		r.Get("/", getSnapshot(service))
		r.Post("/start", startStreak(service))
		r.Get("/watch", watchStreak(service))
	})

	r.Route("/v1/relapses", func(r chi.Router) {
		r.Get("/", listRelapses(service))
		r.Post("/", recordRelapse(service))
	})

	r.Route("/v1/journal", func(r chi.Router) {
		r.Get("/", listJournal(service))
		r.Post("/", addJournalEntry(service))
	})

	r.Route("/v1/analytics", func(r chi.Router) {
		r.Get("/", getAnalytics(service))
		r.Get("/calendar", getCalendar(service))
	})

	r.Get("/v1/badges", listBadges(service))
	r.Get("/v1/ranks", getRanks(service))
	r.Get("/v1/milestones", listMilestones(service))
}

func userID(r *http.Request) string {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		return u.UserID
	}
	return ""
}

func locale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	return streak.DefaultLocale
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userID(r)
	if id == "" {
		apierrors.Write(w, r, "unauthorized", "user identity required")
		return "", false
	}
	return id, true
}

func getSnapshot(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		snap, err := service.Snapshot(r.Context(), id, locale(r))
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func startStreak(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		snap, err := service.StartStreak(r.Context(), id, locale(r))
		if errors.Is(err, streak.ErrStreakActive) {
			apierrors.Write(w, r, "conflict", "a streak is already active; record a relapse to restart")
			return
		}
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

// watchStreak streams one snapshot per engine tick as server-sent events until
// the client disconnects. The server's request timeout caps a single stream;
// EventSource clients reconnect automatically.
func watchStreak(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			apierrors.Write(w, r, "internal", "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		session := service.OpenSession(r.Context(), id, locale(r))
		defer session.Close()

		for snap := range session.Subscribe() {
			data, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func recordRelapse(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req relapseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierrors.Write(w, r, "bad_request", "invalid request body")
			return
		}

		event, snap, err := service.RecordRelapse(r.Context(), id, req.Note, locale(r))
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, relapseResponse{Event: event, Snapshot: snap})
	}
}

func listRelapses(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		relapses, err := service.ListRelapses(r.Context(), id)
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, relapses)
	}
}

func addJournalEntry(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req journalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierrors.Write(w, r, "bad_request", "invalid request body")
			return
		}

		entry, err := service.AddJournalEntry(r.Context(), id, req.Title, req.Body)
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func listJournal(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		entries, err := service.ListJournal(r.Context(), id)
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func getAnalytics(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		analytics, err := service.Analytics(r.Context(), id)
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, analytics)
	}
}

func getCalendar(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		now := time.Now().UTC()
		year := now.Year()
		month := now.Month()

		query := r.URL.Query()
		if raw := query.Get("year"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				apierrors.Write(w, r, "bad_request", "invalid year")
				return
			}
			year = parsed
		}
		if raw := query.Get("month"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 12 {
				apierrors.Write(w, r, "bad_request", "invalid month")
				return
			}
			month = time.Month(parsed)
		}

		calendar, err := service.Calendar(r.Context(), id, year, month)
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, calendar)
	}
}

func listBadges(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		badges, err := service.Badges(r.Context(), id, locale(r))
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, badges)
	}
}

func getRanks(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		ranks, err := service.Ranks(r.Context(), id, locale(r))
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ranks)
	}
}

func listMilestones(service streak.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireUser(w, r)
		if !ok {
			return
		}

		milestones, err := service.Milestones(r.Context(), id, locale(r))
		if err != nil {
			apierrors.Write(w, r, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, milestones)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
