package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/edusphere/school-backend/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		KeyID:       "rzp_test_key",
		KeySecret:   "rzp_test_secret",
		BaseURL:     baseURL,
		Currency:    "INR",
		HTTPTimeout: 2 * time.Second,
		IntentTTL:   30 * time.Minute,
	}
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := NewRazorpayClient(testConfig("https://api.example.test"))

	valid := sign("rzp_test_secret", "order_abc", "pay_xyz")
	assert.True(t, client.VerifySignature("order_abc", "pay_xyz", valid))

	// Any tampering with the ids or the signature fails.
	assert.False(t, client.VerifySignature("order_abc", "pay_other", valid))
	assert.False(t, client.VerifySignature("order_other", "pay_xyz", valid))
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", valid[:len(valid)-2]+"00"))

	// Wrong secret never verifies.
	forged := sign("attacker_secret", "order_abc", "pay_xyz")
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", forged))

	// Garbage that is not even hex fails cleanly.
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", "not-hex!"))
}

func TestCreateOrder_AmountInMinorUnits(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_live_1",
			"amount":   received["amount"],
			"currency": received["currency"],
			"receipt":  received["receipt"],
			"status":   "created",
		})
	}))
	defer server.Close()

	client := NewRazorpayClient(testConfig(server.URL))
	order, err := client.CreateOrder(1250.50, "INR", "intent_1", map[string]string{"due_id": "abc"})
	require.NoError(t, err)

	assert.Equal(t, "order_live_1", order.ID)
	assert.EqualValues(t, 125050, received["amount"])
	assert.Equal(t, "INR", order.Currency)
}

func TestCreateOrder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRazorpayClient(testConfig(server.URL))
	_, err := client.CreateOrder(100, "INR", "intent_err", nil)
	assert.Error(t, err)
}

func TestCreateOrder_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewRazorpayClient(testConfig(server.URL))
	_, err := client.CreateOrder(100, "INR", "intent_down", nil)
	assert.Error(t, err)
}
