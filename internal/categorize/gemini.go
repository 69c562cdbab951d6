package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spendlens/spendlens/internal/domain"
)

// DefaultModelName is the default Gemini model used for classification.
const DefaultModelName = "gemini-2.5-flash"

// GeminiClassifier is a Classifier backed by the Gemini API. Credentials
// come from the environment (GOOGLE_API_KEY / GEMINI_API_KEY).
type GeminiClassifier struct {
	model string
}

// NewGeminiClassifier creates a classifier for the given model name, or
// the default when empty.
func NewGeminiClassifier(model string) *GeminiClassifier {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiClassifier{model: model}
}

// Classify sends one batch to the model and parses its strict-JSON reply.
func (c *GeminiClassifier) Classify(ctx context.Context, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("categorize: create genai client: %w", err)
	}

	payload := make([]map[string]interface{}, len(items))
	for i, item := range items {
		payload[i] = map[string]interface{}{
			"index":       i,
			"description": item.Description,
			"amount":      item.Amount,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("categorize: marshal batch: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildClassifierPrompt()},
				{Text: string(body)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("categorize: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("categorize: empty response from model")
	}

	var parsed []Result
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("categorize: unmarshal response: %w", err)
	}
	return parsed, nil
}

func buildClassifierPrompt() string {
	var b strings.Builder
	b.WriteString("You are a financial transaction categorizer. Given a JSON array of bank transactions (index, description, amount), categorize each into exactly one of these categories:\n\n")
	b.WriteString("- Groceries: Supermarkets, grocery stores, farmers markets\n")
	b.WriteString("- Dining: Restaurants, cafes, fast food, food delivery\n")
	b.WriteString("- Transport: Gas, rideshare, public transit, parking, tolls\n")
	b.WriteString("- Entertainment: Movies, concerts, games, streaming, hobbies\n")
	b.WriteString("- Subscriptions: Recurring digital services, memberships, software\n")
	b.WriteString("- Housing: Rent, mortgage, property tax, HOA, home insurance\n")
	b.WriteString("- Utilities: Electric, gas, water, internet, phone bills\n")
	b.WriteString("- Health: Medical, dental, pharmacy, fitness, insurance premiums\n")
	b.WriteString("- Shopping: Retail, clothing, electronics, home goods, online shopping\n")
	b.WriteString("- Income: Salary, freelance payments, refunds, interest, dividends\n")
	b.WriteString("- Transfer: Bank transfers, credit card payments, investment moves\n")
	b.WriteString("- Other: Anything that doesn't clearly fit another category\n\n")
	b.WriteString("Valid categories: ")
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Positive amounts are likely Income or Transfer (money coming in).\n")
	b.WriteString("- Negative amounts are expenses.\n")
	b.WriteString("- Respond with ONLY a JSON array, no markdown fences, no explanation.\n")
	b.WriteString("- Format: [{\"index\": 0, \"category\": \"Groceries\", \"confidence\": 0.95}, ...]\n")
	b.WriteString("- Confidence is 0.0 to 1.0 based on how certain you are.\n")
	return b.String()
}

// cleanModelJSON strips markdown fences and surrounding junk when the
// model ignores the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the first '[' through the last ']' if junk remains.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
