package settings

import "time"

// Setting holds one category of application settings as a JSON document.
type Setting struct {
	Category  string                 `db:"category" json:"category"`
	Value     map[string]interface{} `db:"value" json:"value"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}

// Defaults returned for categories that have never been written.
var Defaults = map[string]map[string]interface{}{
	"ai_model": {
		"model":          "llama3:latest",
		"temperature":    0.7,
		"max_tokens":     2048,
		"context_length": 4096,
		"top_p":          0.9,
	},
	"privacy": {
		"encrypt_data":       true,
		"anonymize_patients": true,
		"audit_logs":         true,
		"data_retention":     "2 years",
	},
	"notifications": {
		"email_notifications":   true,
		"in_app_alerts":         true,
		"ai_completion":         true,
		"system_updates":        false,
		"payment_confirmations": true,
	},
	"appearance": {
		"theme":     "dark",
		"font_size": "medium",
		"language":  "en",
	},
}
