// Package upload publishes the finished video to YouTube via the Data API v3.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/ashantanu/UltraAutomations/types"
	"github.com/rs/zerolog"
)

// ErrUploadFailed marks an upload that did not produce a video ID. Cosmetic
// followups (thumbnail, playlist) failing does not raise it.
var ErrUploadFailed = errors.New("upload failed")

type Uploader struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Uploader {
	return &Uploader{logger: logger.With().Str("stage", "upload").Logger()}
}

// Upload sends the video and returns its ID and watch URL. Thumbnail and
// playlist steps run after the insert and only log on failure: the video is
// already live, so aborting would lose work over cosmetics.
func (u *Uploader) Upload(ctx context.Context, req types.UploadRequest) (*types.UploadResult, error) {
	svc, err := u.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	f, err := os.Open(req.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open video file: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		u.logger.Info().Str("title", req.Title).Float64("size_mb", float64(fi.Size())/1024/1024).Msg("uploading video")
	}

	// Notify-subscribers is a parameter of the insert call, not part of the
	// status resource.
	call := svc.Videos.Insert([]string{"snippet", "status"}, buildVideo(req))
	call.Media(f)
	call.NotifySubscribers(req.NotifySubscribers)
	uploaded, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	result := &types.UploadResult{
		VideoID:  uploaded.Id,
		VideoURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
	}
	u.logger.Info().Str("video_id", result.VideoID).Str("url", result.VideoURL).Msg("upload complete")

	if req.ThumbnailPath != "" {
		if err := u.setThumbnail(ctx, svc, uploaded.Id, req.ThumbnailPath); err != nil {
			u.logger.Warn().Err(err).Msg("thumbnail set failed")
		}
	}

	if req.PlaylistName != "" {
		playlistID, err := u.addToPlaylist(ctx, svc, uploaded.Id, req.PlaylistName, req.CreatePlaylist)
		if err != nil {
			u.logger.Warn().Err(err).Str("playlist", req.PlaylistName).Msg("playlist step failed")
		} else {
			result.PlaylistID = playlistID
		}
	}

	return result, nil
}

// buildVideo maps the upload request onto the API's video resource.
func buildVideo(req types.UploadRequest) *youtube.Video {
	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                req.Title,
			Description:          req.Description,
			CategoryId:           req.CategoryID,
			DefaultLanguage:      req.Language,
			DefaultAudioLanguage: req.Language,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: req.PrivacyStatus,
		},
	}
}

func (u *Uploader) setThumbnail(ctx context.Context, svc *youtube.Service, videoID, thumbnailPath string) error {
	f, err := os.Open(thumbnailPath)
	if err != nil {
		return fmt.Errorf("open thumbnail: %w", err)
	}
	defer f.Close()

	call := svc.Thumbnails.Set(videoID)
	call.Media(f)
	if _, err := call.Context(ctx).Do(); err != nil {
		return fmt.Errorf("thumbnails.set: %w", err)
	}
	u.logger.Info().Str("video_id", videoID).Msg("thumbnail set")
	return nil
}

// addToPlaylist finds the named playlist on the channel, optionally creating
// it, and inserts the video.
func (u *Uploader) addToPlaylist(ctx context.Context, svc *youtube.Service, videoID, name string, createIfMissing bool) (string, error) {
	playlistID, err := findPlaylist(ctx, svc, name)
	if err != nil {
		return "", err
	}

	if playlistID == "" {
		if !createIfMissing {
			return "", fmt.Errorf("playlist %q not found", name)
		}
		created, err := svc.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
			Snippet: &youtube.PlaylistSnippet{Title: name},
			Status:  &youtube.PlaylistStatus{PrivacyStatus: "public"},
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("create playlist: %w", err)
		}
		playlistID = created.Id
		u.logger.Info().Str("playlist_id", playlistID).Str("name", name).Msg("playlist created")
	}

	_, err = svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("playlistitems.insert: %w", err)
	}
	u.logger.Info().Str("playlist_id", playlistID).Str("video_id", videoID).Msg("added to playlist")
	return playlistID, nil
}

// findPlaylist matches the channel's playlists by title, case-insensitively.
// Channels here have few playlists; one page of 50 is enough.
func findPlaylist(ctx context.Context, svc *youtube.Service, name string) (string, error) {
	resp, err := svc.Playlists.List([]string{"snippet"}).Mine(true).MaxResults(50).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list playlists: %w", err)
	}
	for _, p := range resp.Items {
		if strings.EqualFold(p.Snippet.Title, name) {
			return p.Id, nil
		}
	}
	return "", nil
}

func (u *Uploader) service(ctx context.Context) (*youtube.Service, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}

	svc, err := youtube.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return svc, nil
}
