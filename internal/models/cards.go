package models

import "fmt"

// Card is one tarot card in the deck. A card opens either a curated playlist or the user's top songs.
type Card struct {
	Key        string `toml:"key" json:"key"`
	Name       string `toml:"name" json:"name"`
	Arcana     string `toml:"arcana" json:"arcana"`
	PlaylistID string `toml:"playlist_id" json:"playlist_id,omitempty"`
	TopSongs   bool   `toml:"top_songs" json:"top_songs,omitempty"`
}

// Title renders the card as "Arcana · Name".
func (c Card) Title() string {
	return fmt.Sprintf("%s · %s", c.Arcana, c.Name)
}

// Validate checks that the card opens exactly one thing.
func (c Card) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("card key is required")
	}
	if c.TopSongs && c.PlaylistID != "" {
		return fmt.Errorf("card %s cannot have both a playlist and top songs", c.Key)
	}
	if !c.TopSongs && c.PlaylistID == "" {
		return fmt.Errorf("card %s has no playlist", c.Key)
	}
	return nil
}

// Deck is an ordered set of cards.
type Deck []Card

// Find returns the card with the given key.
func (d Deck) Find(key string) (Card, bool) {
	for _, c := range d {
		if c.Key == key {
			return c, true
		}
	}
	return Card{}, false
}
