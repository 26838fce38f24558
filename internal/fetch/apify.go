package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const apifyBaseURL = "https://api.apify.com/v2"

// apifyClient runs Apify actors synchronously and decodes their dataset
// items. Shared by the Instagram and TikTok fetchers.
type apifyClient struct {
	token  string
	client *resty.Client
}

func newApifyClient(token string) *apifyClient {
	return &apifyClient{
		token: token,
		client: resty.New().
			SetBaseURL(apifyBaseURL).
			SetTimeout(90 * time.Second).
			SetHeader("User-Agent", "brandscout/1.0"),
	}
}

// runActor calls an actor's run-sync-get-dataset-items endpoint and decodes
// the returned items into out.
func (a *apifyClient) runActor(ctx context.Context, actorID string, input, out interface{}) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("token", a.token).
		SetHeader("Content-Type", "application/json").
		SetBody(input).
		Post(fmt.Sprintf("/acts/%s/run-sync-get-dataset-items", actorID))

	if err != nil {
		return fmt.Errorf("apify actor %s: %w", actorID, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("apify actor %s returned status %d: %s", actorID, resp.StatusCode(), resp.Body())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse apify response for %s: %w", actorID, err)
	}

	return nil
}

// taggedUser tolerates both the bare-string and object forms the scrapers
// emit for tagged accounts.
type taggedUser struct {
	Username string
}

func (t *taggedUser) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Username = s
		return nil
	}

	var obj struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Username = obj.Username
	return nil
}
