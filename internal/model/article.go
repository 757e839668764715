package model

import "time"

// Article is a published news/blog entry.
//
// Title and Intro together form the searchable text: the articles_fts index
// (see the sqlite migrations) is kept in sync with these two columns by
// triggers, so search ranking always reflects the stored row.
type Article struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Intro       string    `json:"intro" db:"intro"`
	Content     string    `json:"content" db:"content"`
	ReadTime    string    `json:"read_time" db:"read_time"`
	Link        string    `json:"link" db:"link"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	TopStory    bool      `json:"top_story" db:"top_story"`
}

// Image is a binary attachment served back verbatim with its stored MIME
// type. The same shape backs article images and team-member portraits.
type Image struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"-"`
	Data       []byte    `json:"-"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
