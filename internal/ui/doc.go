// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [CardListView] : The tarot deck; enter draws a card
//  2. [PlaylistView] : The card's playlist (or top songs for the Fool) with playback controls
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Player errors flow through a diagnostics channel and are shown inline on the status line, never as a dialog.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p, r, t, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
