package core

import (
	"fmt"
)

// DefaultPromptVersion versions the rubric below. Bump it whenever the
// rubric changes so stale cache entries stop matching.
const DefaultPromptVersion = "grading-v1"

const gradingRubric = `Du er en konsekvent, rubrikkstyrt sensor for skriftlig norsk (bokmål).
Du vurderer én setning som en elev har oversatt fra engelsk til norsk.
Vurder grammatikk, ordstilling (V2), bøying, preposisjoner, idiomatikk, register og rettskriving, og om meningen er bevart.
Bruk severity "error" bare når elevens form er ugrammatisk, bryter en klar regel eller er en tydelig rettskrivingsfeil.
En akseptabel alternativ formulering er "variant", ikke feil, selv om den er mindre vanlig.
Ett språklig problem gir høyst ett issue. Del ikke opp én feil i flere.
Gi høyst 3 issues.
Funnene fra LanguageTool er primærkilde for rettskriving og grammatikk. Ikke påstå at et tydelig rettskrivingsfunn er riktig.
Svar kun med JSON-objektet.`

const gradingUserTemplate = `NIVÅ: %s

ENGELSK SETNING:
%s

ELEVENS NORSK:
%s

LANGUAGETOOL-FUNN:
%s

VURDERING:
- verdict: "correct" (eksamensgodt, naturlig bokmål uten feil), "minor" (riktig mening, men 1–2 små feil eller litt uidiomatisk) eller "incorrect" (flere feil, eller feil som endrer eller skjuler meningen)
- meaning: "same", "minor_drift" eller "different"
- issues: høyst 3, hver med category, severity ("error", "variant" eller "style"), explanation og fix; objektive feil først
- corrected: én naturlig bokmålsversjon med samme mening
- short_rule: én setning med den viktigste regelen eller rådet`

// SystemPrompt returns the fixed grading rubric
func SystemPrompt() string {
	return gradingRubric
}

// UserPrompt renders the per-request prompt
func (p *GradingPrompt) UserPrompt() string {
	summary := p.GrammarSummary
	if summary == "" {
		summary = summaryUnavailable
	}
	return fmt.Sprintf(gradingUserTemplate, p.Level, p.English, p.Submission, summary)
}
