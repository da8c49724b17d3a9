// Package form defines the host contract decorators attach to and ships
// Memory, a small in-memory host holding a values map.
//
// A host delivers value snapshots to subscribers whenever values change and
// accepts writes through Change. Batch groups writes so subscribers observe a
// single notification once the outermost batch returns. Decorators are plain
// functions: they subscribe when attached and return the Unsubscribe that
// detaches them.
package form
