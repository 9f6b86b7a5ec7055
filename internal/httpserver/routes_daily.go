// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Deal" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's deal (creates or reuses session)
//   - POST /daily/finish      → record a completed daily game
//   - GET  /daily/leaderboard → fetch top 20 scores for today (or a given date)
//
// Each user can play once per day (enforced by DB + in-memory session).
// The deal itself is deterministic: every player shuffles with the same
// HMAC(salt, date) seed, so the leaderboard compares play, not luck.
// Gameplay goes through the regular /game endpoints using the returned ID.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmagesol/solitaire-server/internal/daily"
	"github.com/redmagesol/solitaire-server/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily game.
type dailySession struct {
	GameID   string
	UserID   string
	Date     string
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/finish", dd.handleFinish)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

// handleNew creates or reuses a daily session for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.srv.ownerID(w, r)
	now := time.Now().UTC()
	date := daily.DateKey(now)

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: "", Date: date, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + date
	d.mu.Lock()
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: sess.GameID, Date: date, Played: false})
		return
	}
	g := game.NewSeeded(daily.DealSeed(now, d.salt))
	if err := d.srv.store.Save(r.Context(), g); err != nil {
		d.mu.Unlock()
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	d.sessions[key] = &dailySession{GameID: g.ID, UserID: uid, Date: date}
	d.mu.Unlock()
	gamesStarted.Inc()

	_ = json.NewEncoder(w).Encode(dailyNewRes{GameID: g.ID, Date: date, Played: false})
}

// -----------------------------------------------------------------------------
// /daily/finish

// dailyFinishReq is the request payload for /daily/finish.
type dailyFinishReq struct {
	GameID string `json:"gameId"`
}

// dailyFinishRes is the response payload for /daily/finish.
type dailyFinishRes struct {
	Score   int    `json:"score"`
	Strikes int    `json:"strikes"`
	State   string `json:"state"` // recorded | locked
}

// handleFinish records a completed daily game for today's date.
// - Requires a matching session and a game played to completion.
// - A finished session is locked against re-submission.
func (d *dailyServer) handleFinish(w http.ResponseWriter, r *http.Request) {
	uid := d.srv.ownerID(w, r)

	var p dailyFinishReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.GameID == "" {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	date := daily.DateKey(time.Now().UTC())

	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.GameID != p.GameID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}
	if sess.Finished {
		_ = json.NewEncoder(w).Encode(dailyFinishRes{State: "locked"})
		return
	}

	g, err := d.srv.store.Get(r.Context(), p.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	score, resolved := g.Score()
	if !g.Completed || !resolved {
		http.Error(w, `{"error":"game_not_finished"}`, http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	sess.Finished = true
	d.mu.Unlock()

	strikes := countStrikes(g)
	_ = d.store.InsertResult(r.Context(), daily.Result{
		UserID: uid, Date: date, Score: score, Frames: g.CurrentFrame, Strikes: strikes,
	})
	_ = json.NewEncoder(w).Encode(dailyFinishRes{Score: score, Strikes: strikes, State: "recorded"})
}

// countStrikes counts frames opened with a 10-pin ball.
func countStrikes(g *game.Game) int {
	n := 0
	for _, rolls := range g.FrameRolls {
		if len(rolls) > 0 && rolls[0] == 10 {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now().UTC())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
