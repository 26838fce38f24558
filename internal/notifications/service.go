package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/scoutlabs/brandscout/internal/config"
)

// Service delivers refresh digests via webhook and email, whichever is
// configured. Both channels are attempted independently.
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ NotificationInterface = (*Service)(nil)

// webhookMessage is the generic card posted to the digest webhook.
type webhookMessage struct {
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Sections []messageSection `json:"sections,omitempty"`
}

type messageSection struct {
	Title string        `json:"title,omitempty"`
	Text  string        `json:"text,omitempty"`
	Facts []messageFact `json:"facts,omitempty"`
}

type messageFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendDigest sends a digest via the configured notification channels.
func (s *Service) SendDigest(digest *Digest) error {
	var errs []string

	if s.config.WebhookURL != "" {
		if err := s.sendToWebhook(digest); err != nil {
			logrus.Errorf("Failed to send webhook digest: %v", err)
			errs = append(errs, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Info("Successfully sent digest to webhook")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(digest); err != nil {
			logrus.Errorf("Failed to send email digest: %v", err)
			errs = append(errs, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Info("Successfully sent digest via email")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) sendToWebhook(digest *Digest) error {
	message := buildWebhookMessage(digest)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.WebhookURL)
	if err != nil {
		return fmt.Errorf("failed to post digest: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildWebhookMessage(digest *Digest) *webhookMessage {
	message := &webhookMessage{
		Title: fmt.Sprintf("Creator Discovery Digest - %s", titleCase(digest.Period)),
		Text: fmt.Sprintf("Refreshed %d cached discoveries, %d failed",
			len(digest.Refreshed), len(digest.Failed)),
	}

	facts := []messageFact{
		{Name: "Refreshed", Value: fmt.Sprintf("%d", len(digest.Refreshed))},
		{Name: "Failed", Value: fmt.Sprintf("%d", len(digest.Failed))},
		{Name: "Generated", Value: digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	message.Sections = append(message.Sections, messageSection{Title: "Summary", Facts: facts})

	if len(digest.Refreshed) > 0 {
		var lines []string
		limit := 5
		if len(digest.Refreshed) < limit {
			limit = len(digest.Refreshed)
		}
		for _, summary := range digest.Refreshed[:limit] {
			lines = append(lines, fmt.Sprintf("**%s** - %d creators, top brands: %s",
				summary.Key, summary.CreatorCount, strings.Join(summary.TopBrands, ", ")))
		}
		message.Sections = append(message.Sections, messageSection{
			Title: "Refreshed Discoveries",
			Text:  strings.Join(lines, "\n"),
		})
	}

	return message
}

func (s *Service) sendEmail(digest *Digest) error {
	subject := fmt.Sprintf("Creator Discovery Digest - %s (%d refreshed)",
		titleCase(digest.Period), len(digest.Refreshed))

	htmlBody, err := buildEmailHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(digest))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Creator Discovery Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #6c2bd9; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .entry { border-left: 4px solid #6c2bd9; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .entry-key { font-weight: bold; margin-bottom: 5px; }
        .entry-meta { color: #666; font-size: 0.9em; }
        .failed { border-left-color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Creator Discovery Digest</h1>
        <p>{{.Period}} refresh completed {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Refreshed:</strong> {{len .Refreshed}}</p>
        <p><strong>Failed:</strong> {{len .Failed}}</p>
    </div>

    {{if .Refreshed}}
    <h2>Refreshed Discoveries</h2>
    {{range .Refreshed}}
    <div class="entry">
        <div class="entry-key">{{.Key}}</div>
        <div class="entry-meta">
            {{.CreatorCount}} creators{{if .Niche}} | niche: {{.Niche}}{{end}}{{if .UsedFallback}} | curated list{{end}}
        </div>
        {{if .TopBrands}}<p>Top brands: {{join .TopBrands ", "}}</p>{{end}}
    </div>
    {{end}}
    {{end}}

    {{if .Failed}}
    <h2>Failed</h2>
    {{range .Failed}}
    <div class="entry failed">
        <div class="entry-key">{{.Key}}</div>
        <p>{{.Reason}}</p>
    </div>
    {{end}}
    {{end}}
</body>
</html>
`))

func buildEmailHTML(digest *Digest) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(digest *Digest) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Creator Discovery Digest - %s\n", titleCase(digest.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Refreshed: %d\n", len(digest.Refreshed)))
	text.WriteString(fmt.Sprintf("Failed: %d\n", len(digest.Failed)))

	if len(digest.Refreshed) > 0 {
		text.WriteString("\nREFRESHED DISCOVERIES\n")
		text.WriteString("=====================\n")
		for i, summary := range digest.Refreshed {
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, summary.Key))
			text.WriteString(fmt.Sprintf("   Creators: %d", summary.CreatorCount))
			if summary.Niche != "" {
				text.WriteString(fmt.Sprintf(" | Niche: %s", summary.Niche))
			}
			text.WriteString("\n")
			if len(summary.TopBrands) > 0 {
				text.WriteString(fmt.Sprintf("   Top brands: %s\n", strings.Join(summary.TopBrands, ", ")))
			}
		}
	}

	if len(digest.Failed) > 0 {
		text.WriteString("\nFAILED\n")
		text.WriteString("======\n")
		for _, failure := range digest.Failed {
			text.WriteString(fmt.Sprintf("%s: %s\n", failure.Key, failure.Reason))
		}
	}

	return text.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
