package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// taskInstructions keys the prompt's task-specific instruction line.
var taskInstructions = map[TaskType]string{
	TaskDiagnosis:         "Please provide a differential diagnosis for the following query. Consider multiple possibilities and their likelihood. Format your response with clear sections for primary considerations, diagnostic steps, and red flags:",
	TaskTreatment:         "Please provide evidence-based treatment recommendations for the following query. Include first-line options, alternatives, monitoring requirements, and lifestyle modifications:",
	TaskAnalysis:          "Please analyze the following medical data and provide clinical insights:",
	TaskMedication:        "Please provide comprehensive medication information including drug class, mechanism of action, side effects, interactions, and dosing guidelines:",
	TaskLabInterpretation: "Please interpret the following laboratory results and provide clinical significance:",
}

const defaultInstruction = "Please provide medical information for the following query:"

// BuildPrompt assembles the full generation prompt: system prompt,
// optional context blocks in a fixed order, the task instruction, the
// user query, and a terminal "Response:" cue.
func BuildPrompt(systemPrompt string, q MedicalQuery) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	ctx := q.Context
	if len(ctx.PatientData) > 0 {
		writeJSONBlock(&b, "Patient Information", ctx.PatientData)
	}
	if ctx.MedicalHistory != "" {
		fmt.Fprintf(&b, "Medical History:\n%s\n\n", ctx.MedicalHistory)
	}
	if len(ctx.LabResults) > 0 {
		writeJSONBlock(&b, "Laboratory Results", ctx.LabResults)
	}
	if len(ctx.VitalSigns) > 0 {
		writeJSONBlock(&b, "Vital Signs", ctx.VitalSigns)
	}
	if len(ctx.Medications) > 0 {
		fmt.Fprintf(&b, "Current Medications:\n%s\n\n", strings.Join(ctx.Medications, ", "))
	}
	if len(ctx.Allergies) > 0 {
		fmt.Fprintf(&b, "Known Allergies:\n%s\n\n", strings.Join(ctx.Allergies, ", "))
	}

	instruction, ok := taskInstructions[q.TaskType]
	if !ok {
		instruction = defaultInstruction
	}
	b.WriteString(instruction)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Query: %s\n\nResponse:", q.Text)
	return b.String()
}

func writeJSONBlock(b *strings.Builder, label string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(b, "%s:\n%s\n\n", label, data)
}
