// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow over the local store:
//  1. [SeriesListView] : Browse series
//  2. [SermonListView] : Browse the sermons in a series
//  3. [SyncView] : Monitor a running sync pass in real time
//  4. [ResultView] : Display the outcome of the sync
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine, providing non-blocking
// status reporting during a run. All reads go through the repositories; the TUI never
// mutates content itself.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
