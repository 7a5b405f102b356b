// Package models defines domain entities and persistence interfaces for the jams playlist builder.
//
// The package contains two categories of types:
//
// 1. Value types shared between the resolver, the Spotify client and the engine
//   - [Song] : Title and artist from the static dataset
//   - [Credentials] : Token pair returned by the OAuth code exchange
//   - [TrackReference] : Opaque Spotify track URI resolved from a [Song]
//   - [Playlist] : Playlist created for a single run
//
// 2. Persistent entities
//   - [Run] : One playlist orchestration run with its terminal state
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
