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
	igProfileActor = "apify~instagram-profile-scraper"
	igRelatedActor = "scrapio~instagram-related-person-scraper"
	igPostsActor   = "apify~instagram-scraper"
)

// InstagramFetcher normalizes Apify Instagram actor payloads.
type InstagramFetcher struct {
	apify *apifyClient
}

var _ Fetcher = (*InstagramFetcher)(nil)

func NewInstagramFetcher(apifyToken string) *InstagramFetcher {
	return &InstagramFetcher{apify: newApifyClient(apifyToken)}
}

func (f *InstagramFetcher) Platform() models.Platform {
	return models.PlatformInstagram
}

// igRawProfile covers the field-name variants seen across the profile and
// related-person actors.
type igRawProfile struct {
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	Biography         string `json:"biography"`
	FollowersCount    int    `json:"followersCount"`
	FollowerCount     int    `json:"follower_count"`
	Verified          bool   `json:"verified"`
	IsBusinessAccount bool   `json:"isBusinessAccount"`
}

func (r igRawProfile) normalize() models.Profile {
	followers := r.FollowersCount
	if followers == 0 {
		followers = r.FollowerCount
	}
	name := r.FullName
	if name == "" {
		name = r.Username
	}
	return models.Profile{
		Platform:        models.PlatformInstagram,
		Handle:          strings.TrimPrefix(r.Username, "@"),
		DisplayName:     name,
		Biography:       r.Biography,
		FollowerCount:   followers,
		Verified:        r.Verified,
		BusinessAccount: r.IsBusinessAccount,
		URL:             "https://instagram.com/" + strings.TrimPrefix(r.Username, "@"),
	}
}

type igRawPost struct {
	ID            string       `json:"id"`
	ShortCode     string       `json:"shortCode"`
	Caption       string       `json:"caption"`
	Hashtags      []string     `json:"hashtags"`
	URL           string       `json:"url"`
	Timestamp     string       `json:"timestamp"`
	LikesCount    int          `json:"likesCount"`
	CommentsCount int          `json:"commentsCount"`
	OwnerUsername string       `json:"ownerUsername"`
	TaggedUsers   []taggedUser `json:"taggedUsers"`
}

func (f *InstagramFetcher) FetchProfile(ctx context.Context, handle string) (models.Profile, error) {
	clean := strings.TrimPrefix(handle, "@")

	var items []igRawProfile
	err := f.apify.runActor(ctx, igProfileActor, map[string]interface{}{
		"usernames": []string{clean},
	}, &items)
	if err != nil {
		return models.Profile{}, err
	}

	if len(items) == 0 {
		return models.Profile{}, fmt.Errorf("instagram @%s: %w", clean, models.ErrProfileNotFound)
	}

	return items[0].normalize(), nil
}

func (f *InstagramFetcher) FetchRelatedProfiles(ctx context.Context, handle string, limit int) ([]models.Profile, error) {
	clean := strings.TrimPrefix(handle, "@")

	var items []igRawProfile
	err := f.apify.runActor(ctx, igRelatedActor, map[string]interface{}{
		"username":     clean,
		"resultsLimit": limit,
	}, &items)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.Profile, 0, len(items))
	for _, item := range items {
		if item.Username == "" {
			continue
		}
		profiles = append(profiles, item.normalize())
	}

	logrus.Debugf("Instagram related profiles for @%s: %d", clean, len(profiles))
	return profiles, nil
}

func (f *InstagramFetcher) FetchRecentContent(ctx context.Context, handle string, limit int) ([]models.ContentItem, error) {
	clean := strings.TrimPrefix(handle, "@")

	var items []igRawPost
	err := f.apify.runActor(ctx, igPostsActor, map[string]interface{}{
		"directUrls":   []string{"https://www.instagram.com/" + clean + "/"},
		"resultsType":  "posts",
		"resultsLimit": limit,
	}, &items)
	if err != nil {
		return nil, err
	}

	content := make([]models.ContentItem, 0, len(items))
	for _, post := range items {
		url := post.URL
		if url == "" && post.ShortCode != "" {
			url = "https://instagram.com/p/" + post.ShortCode
		}

		publishedAt, err := time.Parse(time.RFC3339, post.Timestamp)
		if err != nil {
			logrus.Debugf("Unparseable Instagram timestamp %q, skipping post", post.Timestamp)
			continue
		}

		var tagged []string
		for _, t := range post.TaggedUsers {
			if t.Username != "" {
				tagged = append(tagged, t.Username)
			}
		}

		owner := post.OwnerUsername
		if owner == "" {
			owner = clean
		}

		content = append(content, models.ContentItem{
			ID:             post.ID,
			Caption:        post.Caption,
			Hashtags:       post.Hashtags,
			TaggedAccounts: tagged,
			URL:            url,
			PublishedAt:    publishedAt,
			Engagement:     post.LikesCount + post.CommentsCount,
			CreatorHandle:  owner,
		})
	}

	return content, nil
}
