// Package inventory lists the assets directory as a proto.FileInventory.
//
// Files are classified by extension. When a Prober is configured, video and
// audio files are additionally probed for duration and codec so the
// verifier can check things like clip length.
package inventory
