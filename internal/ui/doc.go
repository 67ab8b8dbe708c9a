// Package ui implements the atlas terminal interface on Bubble Tea.
//
// # Views
//
//   - List: every loaded country, narrowed by the persisted filter (search
//     term and region). Edits write straight through to state.FilterStore.
//   - Favorites: the favorite countries in dataset order, narrowed by a
//     local query that matches name or region.
//   - Detail: one country in a scrollable viewport. Neighbours are resolved
//     through the REST client when the view opens.
//
// # Data Flow
//
// The model never caches store contents. A one second tick pulls a fresh
// state.CatalogSnapshot, and every store notification arrives as a
// storeChangedMsg forwarded from the notifier with Program.Send. Both paths
// end in refreshRows, which re-derives the visible rows from the stores.
//
// After every Update the rows are rendered and handed to
// Notifier.ObserveFrame, so a favorites change made by another instance is
// picked up as soon as the frame changes rather than at the next poll. View
// itself never touches storage.
//
// # Theme
//
// ThemePreference decides dark or light. Within each brightness the palette
// comes from config (dark_palette, light_palette) and P cycles through the
// built-in ones for the session without persisting.
package ui
