package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			t.Fatalf("expected basic auth with key credentials")
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req["amount"].(float64) != 19900 || req["currency"].(string) != "INR" {
			t.Fatalf("unexpected order payload: %v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "order_123", "amount": 19900, "currency": "INR",
		})
	}))
	defer server.Close()

	client := NewClientWithBaseURL("key", "secret", server.URL)
	order, err := client.CreateOrder(context.Background(), 19900, "INR", "rcpt_abc")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.OrderID != "order_123" || order.Amount != 19900 || order.Currency != "INR" {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestCreateOrderSurfacesGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("key", "secret", server.URL)
	if _, err := client.CreateOrder(context.Background(), 19900, "INR", "rcpt_abc"); err == nil {
		t.Fatalf("expected error on gateway failure")
	}
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("key", "secret")

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_123|pay_456"))
	valid := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifySignature("order_123", "pay_456", valid) {
		t.Fatalf("expected valid signature to verify")
	}
	if client.VerifySignature("order_123", "pay_456", "deadbeef") {
		t.Fatalf("expected invalid signature to fail")
	}
	if client.VerifySignature("order_999", "pay_456", valid) {
		t.Fatalf("signature must bind to the order id")
	}

	unconfigured := NewClient("key", "")
	if unconfigured.VerifySignature("order_123", "pay_456", valid) {
		t.Fatalf("missing secret must never verify")
	}
}
