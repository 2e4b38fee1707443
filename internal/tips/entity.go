package tips

import "time"

// SavedTip is a tip a user bookmarked. The text is copied at save time so a
// later catalog edit does not rewrite someone's bookmarks.
type SavedTip struct {
	ID       string    `yaml:"id"`
	UserID   string    `yaml:"user_id"`
	Text     string    `yaml:"text"`
	Category string    `yaml:"category,omitempty"`
	SavedAt  time.Time `yaml:"saved_at"`
}
