package payment

import "time"

// Payment maps to the payments table. Offline payments recorded at the
// front desk: cash, UPI, card, cheque.
type Payment struct {
	ID        int64     `db:"id" json:"id"`
	PatientID *int64    `db:"patient_id" json:"patient_id,omitempty"`
	PayerName *string   `db:"payer_name" json:"payer_name,omitempty"`
	Amount    float64   `db:"amount" json:"amount"`
	Currency  string    `db:"currency" json:"currency"`
	Method    string    `db:"method" json:"method"`
	Status    string    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const DefaultCurrency = "INR"

var ValidMethods = map[string]bool{
	"Cash": true, "UPI": true, "Card": true, "Cheque": true, "Other": true,
}

var ValidStatuses = map[string]bool{
	"Paid": true, "Pending": true, "Refunded": true,
}
