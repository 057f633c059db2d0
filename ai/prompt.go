package ai

import (
	"fmt"
	"strings"
)

// VentilatorParams is one ventilator configuration, either the learner's
// answer or the reference setting for the case.
type VentilatorParams struct {
	Mode            string  `json:"mode"` // e.g. VCV, PCV, PSV, SIMV
	TidalVolumeML   float64 `json:"tidal_volume_ml"`
	RespiratoryRate int     `json:"respiratory_rate"`
	PEEP            float64 `json:"peep"` // cmH2O
	FiO2            int     `json:"fio2"` // percent
	IERatio         string  `json:"ie_ratio"`
	PeakFlow        float64 `json:"peak_flow,omitempty"` // L/min
	TriggerSetting  string  `json:"trigger_setting,omitempty"`
}

// AnalysisInput describes a ventilator-configuration exercise submission
type AnalysisInput struct {
	PatientContext string           `json:"patient_context"` // free-text case description
	UserParams     VentilatorParams `json:"user_params"`
	OptimalParams  VentilatorParams `json:"optimal_params"`
}

// BuildVentilatorAnalysisPrompt renders the structured prompt the
// dispatcher sends. The model's answer is returned to the learner as-is.
func BuildVentilatorAnalysisPrompt(input AnalysisInput) string {
	var b strings.Builder

	b.WriteString("You are an expert in mechanical ventilation teaching medical staff.\n")
	b.WriteString("A student configured a ventilator for the following case. Compare the student's settings against the reference settings, explain every clinically relevant deviation and its consequence for the patient, and acknowledge what was set correctly. Answer in clear prose aimed at a clinician in training.\n\n")

	if input.PatientContext != "" {
		b.WriteString("Case:\n")
		b.WriteString(input.PatientContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Student settings:\n")
	writeParams(&b, input.UserParams)
	b.WriteString("\nReference settings:\n")
	writeParams(&b, input.OptimalParams)

	return b.String()
}

func writeParams(b *strings.Builder, p VentilatorParams) {
	fmt.Fprintf(b, "- Mode: %s\n", p.Mode)
	fmt.Fprintf(b, "- Tidal volume: %.0f mL\n", p.TidalVolumeML)
	fmt.Fprintf(b, "- Respiratory rate: %d /min\n", p.RespiratoryRate)
	fmt.Fprintf(b, "- PEEP: %.1f cmH2O\n", p.PEEP)
	fmt.Fprintf(b, "- FiO2: %d%%\n", p.FiO2)
	if p.IERatio != "" {
		fmt.Fprintf(b, "- I:E ratio: %s\n", p.IERatio)
	}
	if p.PeakFlow > 0 {
		fmt.Fprintf(b, "- Peak flow: %.0f L/min\n", p.PeakFlow)
	}
	if p.TriggerSetting != "" {
		fmt.Fprintf(b, "- Trigger: %s\n", p.TriggerSetting)
	}
}
