package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/edusphere/school-backend/models"
	"github.com/edusphere/school-backend/payments"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and serializes
	// writer access the way a production pool would under row contention.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.FeeStructure{},
		&models.Due{},
		&models.PaymentAttempt{},
		&models.Payment{},
	))
	return db
}

// fakeGateway implements the Gateway contract in-process: orders get
// sequential ids and signatures use the same HMAC scheme as the real client.
type fakeGateway struct {
	secret     string
	failCreate bool
	orderSeq   int
}

func (g *fakeGateway) CreateOrder(amount float64, currency, receipt string, notes map[string]string) (*payments.Order, error) {
	if g.failCreate {
		return nil, errors.New("dial tcp: connection refused")
	}
	g.orderSeq++
	return &payments.Order{
		ID:       fmt.Sprintf("order_test_%d", g.orderSeq),
		Amount:   int64(amount * 100),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(g.sign(orderID, paymentID)), []byte(signature))
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
