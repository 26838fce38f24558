package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	ttProfileActor = "clockworks~tiktok-profile-scraper"
	ttVideosActor  = "clockworks~tiktok-scraper"
)

// TikTokFetcher normalizes Clockworks TikTok actor payloads. The free-tier
// actors expose no related-accounts endpoint, so discovery on this platform
// always runs through the curated fallback lists.
type TikTokFetcher struct {
	apify *apifyClient
}

var _ Fetcher = (*TikTokFetcher)(nil)

func NewTikTokFetcher(apifyToken string) *TikTokFetcher {
	return &TikTokFetcher{apify: newApifyClient(apifyToken)}
}

func (f *TikTokFetcher) Platform() models.Platform {
	return models.PlatformTikTok
}

// ttRawProfile handles both nested-stats and flat field layouts.
type ttRawProfile struct {
	Username     string `json:"username"`
	UniqueID     string `json:"uniqueId"`
	Nickname     string `json:"nickname"`
	Signature    string `json:"signature"`
	Biography    string `json:"biography"`
	Verified     bool   `json:"verified"`
	IsVerified   bool   `json:"isVerified"`
	CommerceUser bool   `json:"commerceUser"`
	Stats        struct {
		FollowerCount int `json:"followerCount"`
	} `json:"stats"`
	FollowerCount  int `json:"followerCount"`
	FollowersCount int `json:"followersCount"`
}

func (r ttRawProfile) normalize() models.Profile {
	handle := r.Username
	if handle == "" {
		handle = r.UniqueID
	}
	handle = strings.TrimPrefix(handle, "@")

	name := r.Nickname
	if name == "" {
		name = handle
	}

	bio := r.Signature
	if bio == "" {
		bio = r.Biography
	}

	followers := r.Stats.FollowerCount
	if followers == 0 {
		followers = r.FollowerCount
	}
	if followers == 0 {
		followers = r.FollowersCount
	}

	return models.Profile{
		Platform:        models.PlatformTikTok,
		Handle:          handle,
		DisplayName:     name,
		Biography:       bio,
		FollowerCount:   followers,
		Verified:        r.Verified || r.IsVerified,
		BusinessAccount: r.CommerceUser,
		URL:             "https://tiktok.com/@" + handle,
	}
}

type ttRawVideo struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	WebVideoURL   string   `json:"webVideoUrl"`
	CreateTimeISO string   `json:"createTimeISO"`
	CreateTime    int64    `json:"createTime"`
	DiggCount     int      `json:"diggCount"`
	CommentCount  int      `json:"commentCount"`
	Hashtags      []struct {
		Name string `json:"name"`
	} `json:"hashtags"`
}

func (f *TikTokFetcher) FetchProfile(ctx context.Context, handle string) (models.Profile, error) {
	clean := strings.TrimPrefix(handle, "@")

	var items []ttRawProfile
	err := f.apify.runActor(ctx, ttProfileActor, map[string]interface{}{
		"profiles": []string{clean},
	}, &items)
	if err != nil {
		return models.Profile{}, err
	}

	if len(items) == 0 {
		return models.Profile{}, fmt.Errorf("tiktok @%s: %w", clean, models.ErrProfileNotFound)
	}

	return items[0].normalize(), nil
}

// FetchRelatedProfiles is not available on the free TikTok actors; the
// discovery stage falls through to the curated lists.
func (f *TikTokFetcher) FetchRelatedProfiles(ctx context.Context, handle string, limit int) ([]models.Profile, error) {
	logrus.Debugf("TikTok related profiles unavailable for @%s", handle)
	return nil, nil
}

func (f *TikTokFetcher) FetchRecentContent(ctx context.Context, handle string, limit int) ([]models.ContentItem, error) {
	clean := strings.TrimPrefix(handle, "@")

	var items []ttRawVideo
	err := f.apify.runActor(ctx, ttVideosActor, map[string]interface{}{
		"profiles":     []string{clean},
		"resultsLimit": limit,
	}, &items)
	if err != nil {
		return nil, err
	}

	content := make([]models.ContentItem, 0, len(items))
	for _, video := range items {
		publishedAt, ok := parseTikTokTime(video.CreateTimeISO, video.CreateTime)
		if !ok {
			logrus.Debugf("Unparseable TikTok timestamp on video %s, skipping", video.ID)
			continue
		}

		hashtags := make([]string, 0, len(video.Hashtags))
		for _, h := range video.Hashtags {
			if h.Name != "" {
				hashtags = append(hashtags, h.Name)
			}
		}

		url := video.WebVideoURL
		if url == "" {
			url = "https://tiktok.com/@" + clean
		}

		content = append(content, models.ContentItem{
			ID:            video.ID,
			Caption:       video.Text,
			Hashtags:      hashtags,
			URL:           url,
			PublishedAt:   publishedAt,
			Engagement:    video.DiggCount + video.CommentCount,
			CreatorHandle: clean,
		})
	}

	return content, nil
}

func parseTikTokTime(iso string, unix int64) (time.Time, bool) {
	if iso != "" {
		if ts, err := time.Parse(time.RFC3339, iso); err == nil {
			return ts, true
		}
	}
	if unix > 0 {
		return time.Unix(unix, 0).UTC(), true
	}
	return time.Time{}, false
}
