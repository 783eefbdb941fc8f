package types

import "time"

// Email is one message pulled from a configured source inbox.
type Email struct {
	Sender  string    `json:"sender"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Body    string    `json:"body"`
	Source  string    `json:"source"`
}

// Summary is the structured output of the summarization collaborator.
// Script follows the section/item delimiter grammar understood by the
// script segmenter.
type Summary struct {
	Title       string `json:"title"`
	Script      string `json:"audio_script"`
	Description string `json:"description"`
}

// UploadRequest carries everything the upload collaborator needs for one video.
type UploadRequest struct {
	VideoPath         string `json:"video_path"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ThumbnailPath     string `json:"thumbnail_path,omitempty"`
	PrivacyStatus     string `json:"privacy_status"`
	CategoryID        string `json:"category_id"`
	Language          string `json:"language"`
	PlaylistName      string `json:"playlist_name,omitempty"`
	CreatePlaylist    bool   `json:"create_playlist"`
	NotifySubscribers bool   `json:"notify_subscribers"`
}

// UploadResult reports a completed upload.
type UploadResult struct {
	VideoID    string `json:"video_id"`
	VideoURL   string `json:"video_url"`
	PlaylistID string `json:"playlist_id,omitempty"`
}

// PipelineState tracks the full state of one pipeline run. Each stage fills
// in its own field; the first stage to fail writes Error and no later stage
// runs or overwrites it.
type PipelineState struct {
	RunID           string `json:"run_id"`
	StartedAt       string `json:"started_at"`
	CompletedAt     string `json:"completed_at"`
	SourceText      string `json:"source_text"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	EmailsProcessed int    `json:"emails_processed"`
	NarrationPath   string `json:"narration_path,omitempty"`
	ImagePath       string `json:"image_path,omitempty"`
	ThumbnailPath   string `json:"thumbnail_path,omitempty"`
	VideoPath       string `json:"video_path,omitempty"`
	VideoID         string `json:"video_id,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
	PlaylistID      string `json:"playlist_id,omitempty"`
	Error           string `json:"error,omitempty"`
}
