package domain

import (
	"time"
)

// EmbeddingDim is the length of every embedding the provider produces and
// the store persists.
const EmbeddingDim = 512

// Identity is an enrolled person.
type Identity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Relation  string    `json:"relation"`
	ImagePath string    `json:"image_path"`
	Embedding []float32 `json:"-"`
	// Corrupt is set when the stored features blob had the wrong length.
	Corrupt   bool      `json:"corrupt,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdentitySummary is the listing projection of an Identity.
type IdentitySummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Relation  string `json:"relation"`
	ImagePath string `json:"image_path"`
}

// GalleryEntry is what the matcher scans.
type GalleryEntry struct {
	ID        int64
	Name      string
	Relation  string
	Embedding []float32
}

// UnknownName is reported when no gallery entry clears the threshold.
const UnknownName = "Unknown"

// MatchResult is the outcome of comparing one live embedding to the gallery.
// Score is the best cosine similarity times 100, reported even when rejected.
type MatchResult struct {
	Matched    bool    `json:"matched"`
	IdentityID int64   `json:"identity_id,omitempty"`
	Name       string  `json:"name"`
	Relation   string  `json:"relation,omitempty"`
	Score      float64 `json:"score"`
}
