// Package cas implements the content-addressable object layout used by the
// filesystem archive backend.
//
// An object's location is derived from a digest of its key: the hex digest is
// split into FanoutDepth directory levels of FanoutWidth characters each, and
// the full hex digest names the file. Lookups recompute the path, so the
// (algorithm, depth, width) triple must not change once objects are written.
//
// Objects carry a one byte compression tag followed by the payload.
package cas
