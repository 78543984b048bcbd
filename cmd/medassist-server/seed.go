package main

import "github.com/medassist/medassist/internal/domain/knowledge"

func strptr(s string) *string { return &s }

// starterCorpus returns a small reference corpus so a fresh install can
// answer common questions before any entries have been added through the
// API.
func starterCorpus() []knowledge.Entry {
	return []knowledge.Entry{
		{
			Title: "Hypertension Management Guidelines",
			Content: "Hypertension is diagnosed when blood pressure is persistently at or above " +
				"130/80 mmHg. First-line management combines lifestyle modification (sodium " +
				"restriction, weight loss, regular aerobic exercise, limited alcohol intake) with " +
				"pharmacologic therapy when indicated. Preferred initial agents include thiazide " +
				"diuretics, ACE inhibitors, angiotensin receptor blockers, and calcium channel " +
				"blockers. Treatment targets are individualized; most adults benefit from a goal " +
				"below 130/80 mmHg. Blood pressure should be rechecked within 4 weeks of any " +
				"medication change.",
			Category:       strptr("cardiology"),
			Keywords:       []string{"hypertension", "blood pressure", "ACE inhibitor", "lifestyle"},
			Source:         strptr("clinical guidelines"),
			RelevanceScore: 0.9,
		},
		{
			Title: "Type 2 Diabetes: Diagnosis and Initial Therapy",
			Content: "Type 2 diabetes is diagnosed by HbA1c >= 6.5%, fasting plasma glucose >= 126 " +
				"mg/dL, or a 2-hour glucose >= 200 mg/dL on oral glucose tolerance testing, " +
				"confirmed on repeat testing. Metformin remains first-line therapy alongside " +
				"nutrition counselling and physical activity. For patients with established " +
				"cardiovascular or renal disease, SGLT2 inhibitors or GLP-1 receptor agonists " +
				"are preferred additions. HbA1c should be monitored every 3 months until stable, " +
				"then every 6 months.",
			Category:       strptr("endocrinology"),
			Keywords:       []string{"diabetes", "HbA1c", "metformin", "glucose"},
			Source:         strptr("clinical guidelines"),
			RelevanceScore: 0.9,
		},
		{
			Title: "Common Drug Interactions with Warfarin",
			Content: "Warfarin has a narrow therapeutic index and interacts with many common " +
				"medications. NSAIDs and aspirin increase bleeding risk. Antibiotics such as " +
				"trimethoprim-sulfamethoxazole, metronidazole, and fluconazole potentiate " +
				"warfarin and raise the INR. Rifampin and carbamazepine reduce its effect. " +
				"Significant dietary vitamin K changes also alter INR. Check INR within 3 to 5 " +
				"days of starting or stopping any interacting drug.",
			Category:       strptr("pharmacology"),
			Keywords:       []string{"warfarin", "INR", "drug interaction", "bleeding"},
			Source:         strptr("drug reference"),
			RelevanceScore: 0.85,
		},
		{
			Title: "Interpreting a Basic Metabolic Panel",
			Content: "A basic metabolic panel measures sodium (135-145 mmol/L), potassium " +
				"(3.5-5.0 mmol/L), chloride (98-106 mmol/L), bicarbonate (22-28 mmol/L), blood " +
				"urea nitrogen (7-20 mg/dL), creatinine (0.6-1.2 mg/dL), and glucose (70-99 " +
				"mg/dL fasting). Elevated creatinine with a BUN/creatinine ratio under 20 " +
				"suggests intrinsic renal disease; a ratio above 20 suggests prerenal causes " +
				"such as dehydration. Potassium outside 3.0-6.0 mmol/L warrants urgent review.",
			Category:       strptr("laboratory"),
			Keywords:       []string{"metabolic panel", "creatinine", "potassium", "lab values"},
			Source:         strptr("laboratory reference"),
			RelevanceScore: 0.8,
		},
		{
			Title: "Asthma Exacerbation: Outpatient Management",
			Content: "Mild to moderate asthma exacerbations present with increased wheeze, cough, " +
				"and reduced peak flow above 50% of personal best. Initial treatment is 4 to 10 " +
				"puffs of a short-acting beta agonist via spacer, repeated every 20 minutes for " +
				"the first hour. A short course of oral corticosteroids (prednisolone 40-50 mg " +
				"daily for 5 to 7 days) is indicated when symptoms do not resolve promptly. " +
				"Escalate to emergency care for silent chest, inability to speak in sentences, " +
				"or oxygen saturation below 92%.",
			Category:       strptr("respiratory"),
			Keywords:       []string{"asthma", "exacerbation", "bronchodilator", "peak flow"},
			Source:         strptr("clinical guidelines"),
			RelevanceScore: 0.85,
		},
		{
			Title: "Statin Therapy and Monitoring",
			Content: "Statins are indicated for secondary prevention of atherosclerotic disease " +
				"and for primary prevention when 10-year cardiovascular risk is elevated. " +
				"High-intensity regimens (atorvastatin 40-80 mg, rosuvastatin 20-40 mg) lower " +
				"LDL by 50% or more. Check a lipid panel 4 to 12 weeks after initiation and then " +
				"annually. Routine creatine kinase monitoring is not required; measure it only " +
				"when patients report significant muscle symptoms.",
			Category:       strptr("cardiology"),
			Keywords:       []string{"statin", "cholesterol", "LDL", "atorvastatin"},
			Source:         strptr("drug reference"),
			RelevanceScore: 0.8,
		},
	}
}
