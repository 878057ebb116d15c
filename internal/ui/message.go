package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/arcana/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCardOpened MsgKind = iota
	MsgPlayback
	MsgDiagnostic
	MsgTick
	MsgLogin
)

type cardOpened struct {
	card models.Card
	view *models.PlaylistView
	err  error
}

type playbackDone struct {
	action string
	uri    string
	err    error
}

// cardOpenedMsg is the constructor for [MsgCardOpened]
func cardOpenedMsg(card models.Card, view *models.PlaylistView, err error) Msg {
	return Msg{kind: MsgCardOpened, data: cardOpened{card, view, err}}
}

// playbackMsg is the constructor for [MsgPlayback]
func playbackMsg(action, uri string, err error) Msg {
	return Msg{kind: MsgPlayback, data: playbackDone{action, uri, err}}
}

// diagnosticMsg is the constructor for [MsgDiagnostic]
func diagnosticMsg(err error) Msg {
	return Msg{kind: MsgDiagnostic, data: err}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// loginMsg is the constructor for [MsgLogin]
func loginMsg(err error) Msg {
	return Msg{kind: MsgLogin, data: err}
}
