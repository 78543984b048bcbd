package llm

import "math/rand"

// Canned fallback responses returned while the generation service is
// unreachable. Selection is keyed by task type; task types without a
// dedicated template draw from the general set.

var generalFallbacks = []string{
	"Based on your query, I can provide the following medical information:\n\nThis appears to be a common medical concern. While I cannot provide a definitive diagnosis without proper examination, I can offer some general guidance:\n\n1. Common symptoms to watch for include changes in vital signs, pain levels, and general discomfort.\n2. It's important to maintain proper hydration and rest.\n3. If symptoms persist or worsen, please consult with a healthcare professional immediately.\n\nRemember, this information is for educational purposes only and should not replace professional medical advice.",
	"Thank you for your medical query. Here's what you should know:\n\n• This condition typically requires careful monitoring and evaluation\n• Treatment options vary based on individual patient factors\n• Early intervention often leads to better outcomes\n• Lifestyle modifications may play an important role\n\nPlease consult with your healthcare provider for personalized medical advice and treatment options.",
	"I understand your concern. Let me provide some evidence-based information:\n\nKey Points:\n- This is a condition that affects many patients\n- Diagnosis typically involves clinical examination and possibly diagnostic tests\n- Treatment approaches are individualized based on severity and patient history\n- Regular follow-up is important for optimal management\n\nAlways seek immediate medical attention if you experience severe symptoms or sudden changes in your condition.",
}

var taskFallbacks = map[TaskType][]string{
	TaskDiagnosis: {
		"Based on the symptoms described, here are potential differential diagnoses to consider:\n\n**Primary Considerations:**\n1. [Condition A] - Most likely given the presentation\n2. [Condition B] - Second most probable\n3. [Condition C] - Less likely but important to rule out\n\n**Key Diagnostic Steps:**\n- Clinical examination focusing on [specific areas]\n- Laboratory tests: [specific tests]\n- Imaging studies if indicated\n\n**Red Flags to Watch For:**\n- [Specific warning signs]\n\nPlease consult with a healthcare professional for proper evaluation and diagnosis.",
	},
	TaskTreatment: {
		"Treatment recommendations based on current evidence:\n\n**First-Line Treatment:**\n- [Specific medication/therapy]\n- Dosage: [specific details]\n- Duration: [timeline]\n\n**Alternative Options:**\n- [Other treatments to consider]\n\n**Monitoring Requirements:**\n- [What to watch for]\n- [Follow-up schedule]\n\n**Lifestyle Modifications:**\n- [Diet, exercise, etc.]\n\nAlways follow your healthcare provider's specific treatment plan.",
	},
	TaskMedication: {
		"Medication Information:\n\n**Drug Class:** [Classification]\n**Mechanism of Action:** [How it works]\n**Common Side Effects:** [List of effects]\n**Drug Interactions:** [Important interactions]\n**Contraindications:** [When not to use]\n\n**Dosing Guidelines:**\n- [Standard dosing]\n- [Adjustments for specific populations]\n\n**Monitoring:** [What to monitor]\n\nConsult your pharmacist or healthcare provider for personalized medication advice.",
	},
}

func fallbackResponse(taskType TaskType) string {
	pool, ok := taskFallbacks[taskType]
	if !ok || len(pool) == 0 {
		pool = generalFallbacks
	}
	return pool[rand.Intn(len(pool))]
}
