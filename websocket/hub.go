package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/edusphere/school-backend/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Role   string
	Conn   *websocket.Conn
}

// PaymentEvent is what connected staff dashboards see the moment a payment
// is verified and recorded.
type PaymentEvent struct {
	PaymentID        uuid.UUID  `json:"payment_id"`
	ReceiptNumber    string     `json:"receipt_number"`
	StudentID        *uuid.UUID `json:"student_id,omitempty"`
	DueID            *uuid.UUID `json:"due_id,omitempty"`
	Amount           float64    `json:"amount"`
	Method           string     `json:"method"`
	FlaggedForReview bool       `json:"flagged_for_review"`
	PaymentDate      time.Time  `json:"payment_date"`
}

var clients = make(map[*websocket.Conn]*Client)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan *PaymentEvent, 64)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Dashboard client registered: %s (%s)", client.UserID, client.Role)
			clientsMu.Lock()
			clients[client.Conn] = client
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Dashboard client unregistered: %s", client.UserID)
			clientsMu.Lock()
			delete(clients, client.Conn)
			clientsMu.Unlock()
		case event := <-Broadcast:
			clientsMu.RLock()
			stale := make([]*websocket.Conn, 0)
			for conn, client := range clients {
				if client.Role != "admin" && client.Role != "accountant" {
					continue
				}
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending payment event to client %s: %v", client.UserID, err)
					conn.Close()
					stale = append(stale, conn)
				}
			}
			clientsMu.RUnlock()
			if len(stale) > 0 {
				clientsMu.Lock()
				for _, conn := range stale {
					delete(clients, conn)
				}
				clientsMu.Unlock()
			}
		}
	}
}

// PublishPayment pushes a verified payment onto the live feed without
// blocking the capture path.
func PublishPayment(p *models.Payment) {
	event := &PaymentEvent{
		PaymentID:        p.ID,
		ReceiptNumber:    p.ReceiptNumber,
		StudentID:        p.StudentID,
		DueID:            p.DueID,
		Amount:           p.Amount,
		Method:           p.Method,
		FlaggedForReview: p.FlaggedForReview,
		PaymentDate:      p.PaymentDate,
	}
	select {
	case Broadcast <- event:
	default:
		log.Println("Payment feed buffer full, dropping event")
	}
}
