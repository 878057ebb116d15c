package models

// Profile is the subset of the Spotify user profile arcana shows.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Product     string `json:"product"` // premium, free, etc.
	Image       string `json:"image,omitempty"`
}

// Premium reports whether the account can play in-app.
func (p *Profile) Premium() bool {
	return p != nil && p.Product == "premium"
}

// TimeRange is the window for top tracks.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// ParseTimeRange accepts short, medium, long or the full Spotify names.
func ParseTimeRange(s string) (TimeRange, bool) {
	switch s {
	case "", "short", string(ShortTerm):
		return ShortTerm, true
	case "medium", string(MediumTerm):
		return MediumTerm, true
	case "long", string(LongTerm):
		return LongTerm, true
	}
	return "", false
}

// Label is the human name shown next to the top songs view.
func (r TimeRange) Label() string {
	switch r {
	case MediumTerm:
		return "Last 6 months"
	case LongTerm:
		return "All time"
	default:
		return "Last 4 weeks"
	}
}
