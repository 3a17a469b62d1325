package jobs

import (
	"log"
	"time"
)

// MarkOverdueDues flips unpaid dues past their due date to overdue. The
// transition is forward-only and time-derived; credits landing later move the
// due straight to partial or paid.
func MarkOverdueDues() {
	log.Println("Running job: MarkOverdueDues...")

	marked, err := ledgerService.MarkOverdue(time.Now())
	if err != nil {
		log.Printf("Error marking overdue dues: %v", err)
		return
	}

	if marked == 0 {
		log.Println("No dues fell overdue.")
		return
	}
	log.Printf("Marked %d due(s) as overdue.", marked)
}
