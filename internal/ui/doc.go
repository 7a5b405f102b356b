// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a single playlist run:
//  1. [BirthYearView] : Enter a birth year
//  2. [SongListView] : Preview the songs from the year the user turned 14
//  3. [ConfirmView] : Confirm playlist creation
//  4. [CreatingView] : Follow progress updates from the playlist engine
//  5. [ResultView] : Show the playlist link or the failure message
//
// Progress updates flow through a channel from the engine so rendering never blocks on Spotify.
package ui
