// Package analytics aggregates clinical and operational data into the
// dashboard reports: patient demographics, answer-pipeline performance,
// and payment volumes.
package analytics

// GenderDistribution counts patients per recorded gender.
type GenderDistribution struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

// PatientStats summarizes the patient roster.
type PatientStats struct {
	Total              int                `json:"total"`
	Recent             int                `json:"recent"`
	GenderDistribution GenderDistribution `json:"gender_distribution"`
	AverageAge         int                `json:"average_age"`
}

// QueryStats summarizes answer-pipeline activity.
type QueryStats struct {
	Total               int            `json:"total"`
	Recent              int            `json:"recent"`
	AvgConfidence       float64        `json:"avg_confidence"`
	AvgProcessingTimeMs int            `json:"avg_processing_time_ms"`
	AvgTokensUsed       int            `json:"avg_tokens_used"`
	ByType              map[string]int `json:"by_type"`
}

// PaymentStats summarizes recorded payments.
type PaymentStats struct {
	Total         int                `json:"total"`
	Recent        int                `json:"recent"`
	TotalAmount   float64            `json:"total_amount"`
	AmountByMethod map[string]float64 `json:"amount_by_method"`
	AmountByStatus map[string]float64 `json:"amount_by_status"`
}

// NameCount is one labeled tally, used for top-N condition and
// medication rankings.
type NameCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DailyCount is one day's query volume.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
