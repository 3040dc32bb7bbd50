// Package instance drives evaluation of a compiled root sequence one frame
// at a time.
//
// An Instance looks up, or compiles, the field entry for the frame's time,
// diffs the entities and sequences it activates against the previous frame
// to run setup and teardown hooks, then evaluates the entry's group one
// flush block at a time, applying execution tokens after each block.
package instance
