package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/scoutlabs/brandscout/internal/models"
	"google.golang.org/api/option"
)

// GeminiScorer implements Scorer and NicheDetector against the Gemini API.
type GeminiScorer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

var (
	_ Scorer        = (*GeminiScorer)(nil)
	_ NicheDetector = (*GeminiScorer)(nil)
)

func NewGeminiScorer(ctx context.Context, apiKey, modelName string) (*GeminiScorer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(2048)

	return &GeminiScorer{client: client, model: model}, nil
}

func (g *GeminiScorer) Close() {
	g.client.Close()
}

func (g *GeminiScorer) ScoreBatch(ctx context.Context, seed models.Profile, batch []models.Profile) ([]BatchScore, error) {
	prompt := buildScoringPrompt(seed, batch)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini scoring call: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	return ParseScores(text)
}

func (g *GeminiScorer) DetectNiche(ctx context.Context, profile models.Profile) (string, error) {
	prompt := fmt.Sprintf(`What is the primary niche of this %s creator? Respond with 1-3 words only.

Handle: @%s
Name: %s
Bio: %s`, profile.Platform, profile.Handle, profile.DisplayName, profile.Biography)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini niche call: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}

	niche := strings.ToLower(strings.TrimSpace(text))
	if niche == "" {
		return "", fmt.Errorf("empty niche response")
	}
	return niche, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return sb.String(), nil
}

func buildScoringPrompt(seed models.Profile, batch []models.Profile) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are a brand partnership expert analyzing creator similarity.

SEED CREATOR:
- Handle: @%s
- Name: %s
- Bio: %s
- Followers: %d

TASK: Rate each candidate on a 0-100 scale answering:
"Would a brand that would hire @%s also want to hire this creator?"

CANDIDATES:
`, seed.Handle, seed.DisplayName, seed.Biography, seed.FollowerCount, seed.Handle)

	for i, c := range batch {
		fmt.Fprintf(&sb, `
%d. @%s
   Name: %s
   Bio: %s
   Followers: %d
`, i+1, c.Handle, c.DisplayName, c.Biography, c.FollowerCount)
	}

	sb.WriteString(`
Respond ONLY with valid JSON:
{
  "scores": [
    {"handle": "creator1", "score": 85, "reasoning": "Strong niche overlap, similar audience"}
  ]
}`)

	return sb.String()
}

// ParseScores pulls the scores array out of a model response, tolerating
// prose around the JSON object. Scores are clamped to [0, 100].
func ParseScores(response string) ([]BatchScore, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in scoring response")
	}

	var parsed struct {
		Scores []BatchScore `json:"scores"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}
	if len(parsed.Scores) == 0 {
		return nil, fmt.Errorf("scoring response has no scores")
	}

	for i := range parsed.Scores {
		if parsed.Scores[i].Score < 0 {
			parsed.Scores[i].Score = 0
		}
		if parsed.Scores[i].Score > 100 {
			parsed.Scores[i].Score = 100
		}
		parsed.Scores[i].Handle = strings.TrimPrefix(parsed.Scores[i].Handle, "@")
	}

	return parsed.Scores, nil
}

// NicheFromBiography is the non-LLM fallback: the first meaningful keyword in
// the biography, or the default niche when the bio has none.
func NicheFromBiography(biography, defaultNiche string) string {
	common := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"but": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	}

	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return ' '
	}, biography)

	for _, word := range strings.Fields(cleaned) {
		if len(word) > 3 && !common[word] {
			return word
		}
	}
	return defaultNiche
}
