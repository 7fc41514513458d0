package backend

import "time"

// Note is a community note as stored by the backend.
type Note struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id,omitempty"`
	GuildID         string    `json:"guild_id"`
	AuthorID        string    `json:"author_id"`
	Content         string    `json:"content"`
	Classification  string    `json:"classification"`
	Status          string    `json:"status"`
	HelpfulCount    int       `json:"helpful_count"`
	NotHelpfulCount int       `json:"not_helpful_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// NoteRequest is a pending request for a note on a message.
type NoteRequest struct {
	ID          string    `json:"id"`
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id"`
	RequesterID string    `json:"requester_id"`
	Excerpt     string    `json:"excerpt"`
	CreatedAt   time.Time `json:"created_at"`
}

// GuildConfig is the per-guild configuration snapshot the backend owns.
// The interaction layer treats it as opaque input.
type GuildConfig struct {
	GuildID          string `json:"guild_id"`
	RatingThreshold  int    `json:"rating_threshold"`
	EphemeralReplies bool   `json:"ephemeral_replies"`
	AdminRoleID      string `json:"admin_role_id"`
}

// SubmitNoteRequest is the body for submitting a new note.
type SubmitNoteRequest struct {
	RequestID      string `json:"request_id"`
	GuildID        string `json:"guild_id"`
	AuthorID       string `json:"author_id"`
	Content        string `json:"content"`
	Classification string `json:"classification"`
}

// RateNoteRequest is the body for rating an existing note.
type RateNoteRequest struct {
	RaterID string `json:"rater_id"`
	Helpful bool   `json:"helpful"`
}

// ListNotesParams filters a note listing.
type ListNotesParams struct {
	GuildID string
	Status  string
}
