package insight

import (
	"fmt"
	"strings"
	"text/template"

	"fintrack/internal/core"
)

// MaxPromptCategories bounds the category lines embedded in a prompt. Any
// further categories are folded into a single "Other" line.
const MaxPromptCategories = 25

// OpeningPhrase is the sentence the generated text is asked to start with.
const OpeningPhrase = "Based on your incomes and expenses, here are some insights and suggestions for you."

var promptTmpl = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"usd": func(m core.Money) string { return "$" + m.Fixed() },
}).Parse(`As a financial advisor, analyze this user's financial data for {{.Month}}/{{.Year}} and provide personalized insights and actionable suggestions.

Financial Summary:
- Monthly Income: {{usd .Income}}
- Monthly Expenses: {{usd .Expenses}}
- Monthly Balance: {{usd .Balance}}
- Total Transactions: {{.TransactionCount}}

Top Expense Categories:
{{- range .Categories}}
- {{.Category}}: {{usd .Total}}
{{- else}}
- none recorded
{{- end}}

Please provide:
1. A brief financial health assessment
2. Key insights about spending patterns
3. 3-5 specific, actionable suggestions to improve financial health
4. Positive observations (if any)
5. Areas of concern (if any)

Keep the response concise, friendly, actionable and less than 100 words. Focus on practical advice that this specific user can implement. Start the answer with:
{{.Opening}}
`))

type promptData struct {
	core.MonthSnapshot
	Categories []core.CategoryTotal
	Opening    string
}

// RenderPrompt renders the generation prompt for a snapshot.
func RenderPrompt(s core.InsightSnapshot) (string, error) {
	data := promptData{
		MonthSnapshot: s.CurrentMonth,
		Categories:    boundCategories(s.CurrentMonth.CategoryBreakdown, MaxPromptCategories),
		Opening:       OpeningPhrase,
	}
	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

func boundCategories(cats []core.CategoryTotal, limit int) []core.CategoryTotal {
	if len(cats) <= limit {
		return cats
	}
	out := make([]core.CategoryTotal, limit, limit+1)
	copy(out, cats[:limit])
	other := core.CategoryTotal{Category: fmt.Sprintf("Other (%d categories)", len(cats)-limit)}
	for _, c := range cats[limit:] {
		other.Total = other.Total.Add(c.Total)
	}
	return append(out, other)
}
