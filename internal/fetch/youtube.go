package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/sirupsen/logrus"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeFetcher talks to the YouTube Data API. Channels map to profiles
// (subscribers as follower count, description as biography) and videos to
// content items (views as engagement).
type YouTubeFetcher struct {
	apiKey string
	client *resty.Client
}

var _ Fetcher = (*YouTubeFetcher)(nil)

func NewYouTubeFetcher(apiKey string) *YouTubeFetcher {
	return &YouTubeFetcher{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(youtubeBaseURL).
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "brandscout/1.0"),
	}
}

func (f *YouTubeFetcher) Platform() models.Platform {
	return models.PlatformYouTube
}

type ytChannelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			CustomURL   string `json:"customUrl"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID   string `json:"videoId"`
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (f *YouTubeFetcher) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	req := f.client.R().SetContext(ctx).SetQueryParam("key", f.apiKey)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("youtube %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("youtube %s returned status %d: %s", path, resp.StatusCode(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse youtube %s response: %w", path, err)
	}
	return nil
}

func (f *YouTubeFetcher) FetchProfile(ctx context.Context, handle string) (models.Profile, error) {
	clean := strings.TrimPrefix(handle, "@")

	var resp ytChannelsResponse
	err := f.get(ctx, "/channels", map[string]string{
		"part":      "snippet,statistics",
		"forHandle": clean,
	}, &resp)
	if err != nil {
		return models.Profile{}, err
	}

	if len(resp.Items) == 0 {
		return models.Profile{}, fmt.Errorf("youtube @%s: %w", clean, models.ErrProfileNotFound)
	}

	ch := resp.Items[0]
	subscribers, _ := strconv.Atoi(ch.Statistics.SubscriberCount)

	return models.Profile{
		Platform:      models.PlatformYouTube,
		Handle:        clean,
		DisplayName:   ch.Snippet.Title,
		Biography:     ch.Snippet.Description,
		FollowerCount: subscribers,
		URL:           "https://youtube.com/@" + clean,
	}, nil
}

// FetchRelatedProfiles searches for channels similar to the seed by querying
// the seed channel's title. The Data API has no dedicated related-channels
// endpoint, so search is the closest primary path.
func (f *YouTubeFetcher) FetchRelatedProfiles(ctx context.Context, handle string, limit int) ([]models.Profile, error) {
	seed, err := f.FetchProfile(ctx, handle)
	if err != nil {
		return nil, err
	}

	if limit > 50 {
		limit = 50 // search.list maxResults cap
	}

	var search ytSearchResponse
	err = f.get(ctx, "/search", map[string]string{
		"part":       "snippet",
		"type":       "channel",
		"q":          seed.DisplayName,
		"maxResults": strconv.Itoa(limit),
	}, &search)
	if err != nil {
		return nil, err
	}

	var profiles []models.Profile
	for _, item := range search.Items {
		if item.ID.ChannelID == "" {
			continue
		}
		profile, err := f.profileByChannelID(ctx, item.ID.ChannelID)
		if err != nil {
			logrus.Debugf("Skipping channel %s: %v", item.ID.ChannelID, err)
			continue
		}
		if strings.EqualFold(profile.Handle, seed.Handle) {
			continue
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func (f *YouTubeFetcher) profileByChannelID(ctx context.Context, channelID string) (models.Profile, error) {
	var resp ytChannelsResponse
	err := f.get(ctx, "/channels", map[string]string{
		"part": "snippet,statistics",
		"id":   channelID,
	}, &resp)
	if err != nil {
		return models.Profile{}, err
	}
	if len(resp.Items) == 0 {
		return models.Profile{}, fmt.Errorf("channel %s: %w", channelID, models.ErrProfileNotFound)
	}

	ch := resp.Items[0]
	subscribers, _ := strconv.Atoi(ch.Statistics.SubscriberCount)
	handle := strings.TrimPrefix(ch.Snippet.CustomURL, "@")
	if handle == "" {
		handle = ch.ID
	}

	return models.Profile{
		Platform:      models.PlatformYouTube,
		Handle:        handle,
		DisplayName:   ch.Snippet.Title,
		Biography:     ch.Snippet.Description,
		FollowerCount: subscribers,
		URL:           "https://youtube.com/@" + handle,
	}, nil
}

func (f *YouTubeFetcher) FetchRecentContent(ctx context.Context, handle string, limit int) ([]models.ContentItem, error) {
	clean := strings.TrimPrefix(handle, "@")

	// Resolve the channel id first, then list its latest uploads.
	var channels ytChannelsResponse
	err := f.get(ctx, "/channels", map[string]string{
		"part":      "snippet",
		"forHandle": clean,
	}, &channels)
	if err != nil {
		return nil, err
	}
	if len(channels.Items) == 0 {
		return nil, fmt.Errorf("youtube @%s: %w", clean, models.ErrProfileNotFound)
	}

	var search ytSearchResponse
	err = f.get(ctx, "/search", map[string]string{
		"part":       "id",
		"channelId":  channels.Items[0].ID,
		"order":      "date",
		"type":       "video",
		"maxResults": strconv.Itoa(limit),
	}, &search)
	if err != nil {
		return nil, err
	}

	var videoIDs []string
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			videoIDs = append(videoIDs, item.ID.VideoID)
		}
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	var videos ytVideosResponse
	err = f.get(ctx, "/videos", map[string]string{
		"part": "snippet,statistics",
		"id":   strings.Join(videoIDs, ","),
	}, &videos)
	if err != nil {
		return nil, err
	}

	content := make([]models.ContentItem, 0, len(videos.Items))
	for _, v := range videos.Items {
		publishedAt, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt)
		if err != nil {
			logrus.Debugf("Unparseable YouTube timestamp %q, skipping video %s", v.Snippet.PublishedAt, v.ID)
			continue
		}

		views, _ := strconv.Atoi(v.Statistics.ViewCount)

		content = append(content, models.ContentItem{
			ID:            v.ID,
			Caption:       v.Snippet.Title + "\n" + v.Snippet.Description,
			URL:           "https://youtube.com/watch?v=" + v.ID,
			PublishedAt:   publishedAt,
			Engagement:    views,
			CreatorHandle: clean,
		})
	}

	return content, nil
}
