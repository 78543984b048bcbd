// Package llm wraps an Ollama-compatible text-generation service with
// availability tracking, serialized dispatch, and simulated responses
// when the service is unreachable.
package llm

// TaskType classifies a medical query and selects the task-specific
// prompt instruction and fallback template.
type TaskType string

const (
	TaskDiagnosis         TaskType = "diagnosis"
	TaskTreatment         TaskType = "treatment"
	TaskAnalysis          TaskType = "analysis"
	TaskGeneral           TaskType = "general"
	TaskMedication        TaskType = "medication"
	TaskLabInterpretation TaskType = "lab_interpretation"
)

var validTaskTypes = map[TaskType]bool{
	TaskDiagnosis: true, TaskTreatment: true, TaskAnalysis: true,
	TaskGeneral: true, TaskMedication: true, TaskLabInterpretation: true,
}

// QueryContext carries optional clinical context folded into the prompt.
// Blocks are serialized in a fixed order; absent fields are skipped.
type QueryContext struct {
	PatientData    map[string]interface{} `json:"patient_data,omitempty"`
	MedicalHistory string                 `json:"medical_history,omitempty"`
	LabResults     map[string]interface{} `json:"lab_results,omitempty"`
	VitalSigns     map[string]interface{} `json:"vital_signs,omitempty"`
	Medications    []string               `json:"medications,omitempty"`
	Allergies      []string               `json:"allergies,omitempty"`
}

// MedicalQuery is one structured request to the generation backend.
type MedicalQuery struct {
	Text     string       `json:"text"`
	TaskType TaskType     `json:"task_type"`
	Context  QueryContext `json:"context"`
}

// Response is the completed generation result. Simulated marks canned
// fallback content produced while the backend was unreachable.
type Response struct {
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	TokensUsed       int     `json:"tokens_used"`
	ModelUsed        string  `json:"model_used"`
	Simulated        bool    `json:"simulated"`
}

// Chunk is one increment of a streaming generation. The final chunk of a
// stream carries Done=true.
type Chunk struct {
	Chunk      string `json:"chunk"`
	Done       bool   `json:"done"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// Status is a point-in-time snapshot of the backend wrapper.
type Status struct {
	Ready           bool     `json:"ready"`
	QueueLength     int      `json:"queue_length"`
	Processing      bool     `json:"processing"`
	AvailableModels []string `json:"available_models"`
}
