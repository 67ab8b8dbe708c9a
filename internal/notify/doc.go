// Package notify fans state changes out to every interested consumer.
//
// Four detection paths feed one Notifier:
//
//  1. Publish: a store calls Publish right after a local mutation. Delivery is
//     synchronous and reaches every subscriber in the same process.
//  2. Storage signal: profile writes made by other instances arrive through
//     the Watcher. The owning store reloads and the channel is re-published.
//     The writing instance never receives its own signal, so it relies on (1).
//  3. Structure: ObserveFrame fingerprints the rows a UI renders. A changed
//     frame re-checks favorites. This path is best effort; it may fire for
//     unrelated redraws and may miss changes that do not alter the frame.
//  4. Poll: every PollEvery (2s by default) favorites are re-read. Session
//     data has no cross-instance signal, so this is the only bounded path by
//     which other instances learn about favorite changes.
//
// Events carry no state. Subscribers re-read the store, which makes duplicate
// deliveries harmless, and detections that find nothing changed publish
// nothing.
//
// The external detectors (2-4) start with the first subscription and stop
// when the last unsubscribe func is called. Forgetting to unsubscribe keeps a
// ticker and a storage watch alive until Close.
package notify
