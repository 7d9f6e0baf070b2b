package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/app"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/memory"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/razorpay"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedProfiles([]domain.Profile{
		{ID: "u1", FullName: "Alice"},
	})

	progress := app.NewProgressService(store, nil, 600)
	catalog := app.NewCatalogService(store, store)
	payments := app.NewPaymentService(razorpay.NewClient("key", "secret"), store, 19900, "INR", "key")

	handler := NewHandler(progress, catalog, payments)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url string, body interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	out["_status"] = resp.StatusCode
	return out
}

func getJSON(t *testing.T, url string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	out["_status"] = resp.StatusCode
	return out
}

func TestProgressEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	started := postJSON(t, server.URL+"/api/progress/start", map[string]string{"user_id": "u1", "problem_id": "p1"})
	if started["ok"] != true || started["mode"] != "time_started" {
		t.Fatalf("unexpected start response: %v", started)
	}

	finished := postJSON(t, server.URL+"/api/progress/finish", map[string]string{"user_id": "u1", "problem_id": "p1"})
	if finished["ok"] != true || finished["mode"] != "updated_first_solve" {
		t.Fatalf("unexpected finish response: %v", finished)
	}
	// An instant solve sits under the 600s threshold.
	if finished["flagged"] != true {
		t.Fatalf("expected flagged solve: %v", finished)
	}

	again := postJSON(t, server.URL+"/api/progress/finish", map[string]string{"user_id": "u1", "problem_id": "p1"})
	if again["mode"] != "already_solved_no_change" {
		t.Fatalf("expected idempotent finish, got %v", again)
	}

	solved := getJSON(t, server.URL+"/api/progress/solved?user_id=u1")
	ids, _ := solved["solvedProblemIds"].([]interface{})
	if len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("unexpected solved ids: %v", solved)
	}

	lb := getJSON(t, server.URL+"/api/leaderboard")
	rows, _ := lb["leaderboard"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("unexpected leaderboard: %v", lb)
	}
}

func TestValidationErrors(t *testing.T) {
	server, _ := newTestServer(t)

	missing := postJSON(t, server.URL+"/api/progress/start", map[string]string{"problem_id": "p1"})
	if missing["_status"] != http.StatusBadRequest || missing["ok"] != false {
		t.Fatalf("expected 400, got %v", missing)
	}

	noUser := getJSON(t, server.URL+"/api/progress/solved")
	if noUser["_status"] != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", noUser)
	}
}

func TestProblemCatalogEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	added := postJSON(t, server.URL+"/api/admin/problems", map[string]interface{}{
		"title": "Two Sum", "difficulty": "Easy", "link": "https://leetcode.com/problems/two-sum/", "week": 1, "position": 1,
	})
	if added["ok"] != true {
		t.Fatalf("add problem failed: %v", added)
	}

	invalid := postJSON(t, server.URL+"/api/admin/problems", map[string]interface{}{"title": "No link"})
	if invalid["_status"] != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid problem, got %v", invalid)
	}

	listed := getJSON(t, server.URL+"/api/problems?week=1")
	problems, _ := listed["problems"].([]interface{})
	if len(problems) != 1 {
		t.Fatalf("unexpected problems: %v", listed)
	}
}

func TestProfileEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	profile := getJSON(t, server.URL+"/api/profile?user_id=u1")
	if profile["ok"] != true {
		t.Fatalf("profile failed: %v", profile)
	}

	missing := getJSON(t, server.URL+"/api/profile?user_id=nobody")
	if missing["_status"] != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", missing)
	}
}

func TestPaymentVerifyFlipsAccess(t *testing.T) {
	server, store := newTestServer(t)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_123|pay_456"))
	signature := hex.EncodeToString(mac.Sum(nil))

	verified := postJSON(t, server.URL+"/api/payment/verify", map[string]string{
		"user_id":             "u1",
		"razorpay_order_id":   "order_123",
		"razorpay_payment_id": "pay_456",
		"razorpay_signature":  signature,
	})
	if verified["ok"] != true {
		t.Fatalf("verify failed: %v", verified)
	}

	profile, err := store.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !profile.HasAccess {
		t.Fatalf("expected access granted after verified payment")
	}

	rejected := postJSON(t, server.URL+"/api/payment/verify", map[string]string{
		"user_id":             "u1",
		"razorpay_order_id":   "order_123",
		"razorpay_payment_id": "pay_456",
		"razorpay_signature":  "bogus",
	})
	if rejected["_status"] != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %v", rejected)
	}
}
