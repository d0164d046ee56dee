// ABOUTME: This file holds the shared yes/no relevance prompt used by every provider
// ABOUTME: Keeping the wording in one place keeps the providers interchangeable
package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a news classifier. Determine if an article is about " +
	"HEAT or HEATWAVE impact in a SPECIFIC REGION of INDIA. " +
	"Answer ONLY 'Yes' or 'No'."

const userPromptTemplate = `RELEVANT (Yes):
- Heatwave or extreme heat events in %[1]s (or %[2]s if given)
- Temperature records or forecasts showing unusual heat in %[1]s
- Heat-related health issues (heatstroke, heat deaths, dehydration) in %[1]s
- Heat-caused infrastructure problems (power outages, water shortages) in %[1]s
- Government heat advisories for %[1]s
- National-level heat news that explicitly mentions %[1]s

NOT RELEVANT (No):
- Heat news about a DIFFERENT Indian state (e.g. article about Delhi != Andaman)
- Heat news from outside India
- General weather not about heat (rain, cold, fog, storms)
- Products, entertainment, or sports mentioning "heat"
- Articles where heat/temperature is mentioned only incidentally

State: %[1]s
District: %[2]s
Title: %[3]s
Content (first 500 chars): %[4]s

Answer ONLY "Yes" or "No".`

// previewLength bounds how much article text is sent to a provider.
const previewLength = 500

func textPreview(fullText string) string {
	runes := []rune(fullText)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return strings.TrimSpace(string(runes))
}

func buildPrompt(title, fullText, state, district string) string {
	preview := textPreview(fullText)
	if preview == "" {
		preview = "(no text)"
	}
	if state == "" {
		state = "(unknown)"
	}
	if district == "" {
		district = "(not specified)"
	}
	return fmt.Sprintf(userPromptTemplate, state, district, title, preview)
}
