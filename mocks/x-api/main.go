// Command x-api-mock serves the subset of the X API v2 that xverify calls,
// with fixed fixtures and magic ids that trigger failure modes.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort  = "8090"
	defaultToken = "mock-bearer-token"
)

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type referencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type tweet struct {
	ID               string            `json:"id"`
	AuthorID         string            `json:"author_id"`
	ConversationID   string            `json:"conversation_id"`
	Text             string            `json:"text"`
	ReferencedTweets []referencedTweet `json:"referenced_tweets,omitempty"`
}

type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

var (
	token     = getEnv("BEARER_TOKEN", defaultToken)
	latencyMs = getEnvInt("LATENCY_MS", 50)

	alice = user{ID: "1", Username: "alice", Name: "Alice"}
	bob   = user{ID: "2", Username: "bob", Name: "Bob"}
	carol = user{ID: "3", Username: "carol", Name: "Carol"}

	users = map[string]user{"alice": alice, "bob": bob, "carol": carol}

	// Tweet 123 by carol: alice liked, retweeted and replied on the third
	// page of each listing; bob follows carol on the last follower page.
	tweets = map[string]tweet{
		"123": {ID: "123", AuthorID: carol.ID, ConversationID: "123", Text: "launch day"},
		"900": {ID: "900", AuthorID: alice.ID, ConversationID: "123", Text: "congrats!",
			ReferencedTweets: []referencedTweet{{Type: "replied_to", ID: "123"}}},
	}
	likers     = map[string][]user{"123": append(crowd("liker", 250), alice)}
	retweeters = map[string][]user{"123": append(crowd("rt", 120), alice)}
	followers  = map[string][]user{carol.ID: append(crowd("fan", 1500), bob)}
)

func crowd(prefix string, n int) []user {
	out := make([]user, n)
	for i := range out {
		out[i] = user{ID: fmt.Sprintf("%s-%d", prefix, i), Username: fmt.Sprintf("%s_%d", prefix, i)}
	}
	return out
}

func main() {
	port := getEnv("PORT", defaultPort)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /2/users/by/username/{handle}", guard(handleLookup))
	mux.Handle("GET /2/tweets/{id}/liking_users", guard(listing(likers, 100)))
	mux.Handle("GET /2/tweets/{id}/retweeted_by", guard(listing(retweeters, 100)))
	mux.Handle("GET /2/users/{id}/followers", guard(listing(followers, 1000)))
	mux.Handle("GET /2/tweets/search/recent", guard(handleSearch))
	mux.Handle("GET /2/tweets/{id}", guard(handleTweet))

	log.Printf("Mock X API starting on port %s", port)
	log.Printf("Bearer token: %s", token)
	log.Printf("Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "x-api-mock"})
}

// guard checks the bearer token, applies latency and the magic failure ids:
// "ratelimited", "outage", "timeout" and "garbled" as a handle or tweet id.
func guard(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(latencyMs) * time.Millisecond)

		if r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"title": "Unauthorized", "status": 401})
			return
		}

		switch magic(r) {
		case "ratelimited":
			reset := time.Now().Add(15 * time.Minute).Unix()
			w.Header().Set("x-rate-limit-limit", "75")
			w.Header().Set("x-rate-limit-remaining", "0")
			w.Header().Set("x-rate-limit-reset", strconv.FormatInt(reset, 10))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"title": "Too Many Requests", "status": 429})
			return
		case "outage":
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"title": "Service Unavailable", "status": 503})
			return
		case "timeout":
			time.Sleep(30 * time.Second)
		case "garbled":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data": [`)) //nolint:errcheck
			return
		}

		w.Header().Set("x-rate-limit-limit", "75")
		w.Header().Set("x-rate-limit-remaining", "74")
		w.Header().Set("x-rate-limit-reset", strconv.FormatInt(time.Now().Add(15*time.Minute).Unix(), 10))
		next(w, r)
	})
}

func magic(r *http.Request) string {
	for _, v := range []string{r.PathValue("handle"), r.PathValue("id")} {
		switch strings.ToLower(v) {
		case "ratelimited", "outage", "timeout", "garbled":
			return strings.ToLower(v)
		}
	}
	return ""
}

func handleLookup(w http.ResponseWriter, r *http.Request) {
	u, ok := users[strings.ToLower(r.PathValue("handle"))]
	if !ok {
		notFound(w, "user", r.PathValue("handle"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func handleTweet(w http.ResponseWriter, r *http.Request) {
	t, ok := tweets[r.PathValue("id")]
	if !ok {
		notFound(w, "tweet", r.PathValue("id"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": t})
}

func listing(source map[string][]user, maxPage int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		items, ok := source[id]
		if !ok {
			if _, known := tweets[id]; !known && !strings.HasPrefix(r.URL.Path, "/2/users/") {
				notFound(w, "tweet", id)
				return
			}
		}
		size := pageSize(r, maxPage)
		page, next := paginate(items, r.URL.Query().Get("pagination_token"), size)
		writePage(w, page, next)
	}
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	var inReplyTo, from string
	for _, term := range strings.Fields(r.URL.Query().Get("query")) {
		if v, ok := strings.CutPrefix(term, "in_reply_to_tweet_id:"); ok {
			inReplyTo = v
		}
		if v, ok := strings.CutPrefix(term, "from:"); ok {
			from = strings.ToLower(v)
		}
	}
	var hits []tweet
	for _, t := range tweets {
		if inReplyTo != "" && !repliesTo(t, inReplyTo) {
			continue
		}
		if from != "" && users[from].ID != t.AuthorID {
			continue
		}
		hits = append(hits, t)
	}
	page, next := paginate(hits, r.URL.Query().Get("next_token"), pageSize(r, 100))
	writePage(w, page, next)
}

func repliesTo(t tweet, id string) bool {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "replied_to" && ref.ID == id {
			return true
		}
	}
	return false
}

func pageSize(r *http.Request, maxPage int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("max_results"))
	if err != nil || n <= 0 || n > maxPage {
		return maxPage
	}
	return n
}

func paginate[T any](items []T, token string, size int) ([]T, string) {
	start := 0
	if token != "" {
		start, _ = strconv.Atoi(strings.TrimPrefix(token, "p"))
	}
	if start >= len(items) {
		return nil, ""
	}
	end := min(start+size, len(items))
	next := ""
	if end < len(items) {
		next = "p" + strconv.Itoa(end)
	}
	return items[start:end], next
}

func writePage[T any](w http.ResponseWriter, items []T, next string) {
	meta := map[string]any{"result_count": len(items)}
	if next != "" {
		meta["next_token"] = next
	}
	body := map[string]any{"meta": meta}
	if len(items) > 0 {
		body["data"] = items
	}
	writeJSON(w, http.StatusOK, body)
}

// notFound mirrors the API: 200 with an errors array and no data.
func notFound(w http.ResponseWriter, kind, value string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": []problem{{
			Title:  "Not Found Error",
			Detail: fmt.Sprintf("Could not find %s with id: [%s].", kind, value),
			Type:   "https://api.twitter.com/2/problems/resource-not-found",
		}},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
