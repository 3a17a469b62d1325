package jobs

import (
	"log"
	"time"

	"github.com/edusphere/school-backend/services"
)

var paymentService *services.PaymentService
var ledgerService *services.LedgerService

// Init wires the constructed services into the job package. Called once from
// main before the cron scheduler starts.
func Init(payment *services.PaymentService, ledger *services.LedgerService) {
	paymentService = payment
	ledgerService = ledger
}

// ExpireStaleIntents garbage-collects payment attempts that outlived the
// intent TTL. An expired intent can never be consumed, so an abandoned
// checkout needs no explicit cancellation.
func ExpireStaleIntents() {
	log.Println("Running job: ExpireStaleIntents...")

	expired, err := paymentService.ExpireStaleIntents(time.Now())
	if err != nil {
		log.Printf("Error expiring stale payment intents: %v", err)
		return
	}

	if expired == 0 {
		log.Println("No stale payment intents found.")
		return
	}
	log.Printf("Expired %d stale payment intent(s).", expired)
}
