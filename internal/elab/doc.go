// Package elab implements the elaboration stage of the compiler: it
// flattens the hierarchical module-instantiation graph into one Scope per
// instantiation path, each owning independent copies of its module's
// behavioral statements and per-instance storage cells for its variables.
//
// The stage runs three strictly ordered phases over one mutable tree:
//
//  1. The walker descends the cell hierarchy depth-first, creating a Scope
//     per path, cloning (or, for class methods, moving) behavioral
//     statements into it, creating VarScope cells on first sight of each
//     (variable, scope) pair, and queueing variable references whose
//     target scope may not exist yet.
//  2. The fixup phase drains that queue against the completed scope
//     registry and varscope memo, binding every queued reference.
//  3. The cleanup phase deletes template statements that were never
//     instantiated and severs cross-module links the downstream linking
//     stage re-resolves against the flattened tree.
//
// Everything runs single-threaded; traversal context is passed by value
// down the recursion so sibling subtrees never observe each other's
// in-progress state.
package elab
