package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/arcana/internal/models"
)

var (
	_ list.Item = cardItem{}
	_ list.Item = trackItem{}
)

// cardItem wraps [models.Card] to implement [list.Item].
type cardItem struct {
	card models.Card
}

func (i cardItem) FilterValue() string { return i.card.Name + " " + i.card.Arcana }
func (i cardItem) Title() string       { return i.card.Title() }
func (i cardItem) Description() string {
	if i.card.TopSongs {
		return "Your top songs"
	}
	return "Playlist reading"
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	current bool
	paused  bool
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	switch {
	case i.current && i.paused:
		return "❚❚ " + i.track.Name
	case i.current:
		return "▶ " + i.track.Name
	default:
		return i.track.Name
	}
}
func (i trackItem) Description() string { return i.track.Artist }

func cardItems(deck models.Deck) []list.Item {
	items := make([]list.Item, len(deck))
	for i, card := range deck {
		items[i] = cardItem{card: card}
	}
	return items
}

func trackItems(tracks []models.Track, session models.PlayerSession) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{
			track:   track,
			current: track.URI != "" && track.URI == session.CurrentTrackURI,
			paused:  session.Paused,
		}
	}
	return items
}
