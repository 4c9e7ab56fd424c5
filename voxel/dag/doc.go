// Package dag implements a sparse 64-ary voxel DAG over deduplicating stores.
//
// Every node splits its cubic cell into 4x4x4 sub-cells. A node is a 12-byte
// record (see internal/format): a pointer, a leaf flag and a 64-bit
// occupancy mask. The payload at the pointer is a compact list holding one
// entry per set mask bit, in canonical slot order (x + 4y + 16z):
//
//   - interior nodes point into the node store at a list of child records
//   - leaves point into the leaf store at a list of material bytes
//
// Both stores deduplicate content, so identical subtrees collapse to the
// same records and the tree becomes a DAG.
//
// # Building
//
// Build asks a Source for the value of a cell. A uniform non-zero cell
// becomes a leaf of 64 copies of the value at any level; a mixed level-1
// cell becomes a sparse leaf from point queries; anything else recurses.
// With Options.Parallel the 64 children of a node are evaluated on a bounded
// pool of goroutines and put back into slot order before they are stored, so
// parallel and serial builds store identical bytes.
//
// # Entries
//
// An entry names a root: an origin, a level count (extent 4^levels per axis)
// and the node-store index of the root record. Entries are addressed by
// generational keys; Delete invalidates every copy of a key.
//
// # Updates
//
// Update is copy-on-write. It grows the root until it covers the region,
// rebuilds the cells the region touches and reuses every other child record
// as-is. Old nodes are never rewritten, so other entries sharing them are
// unaffected.
//
// # Reclaiming Storage
//
// Nothing is freed implicitly. Collect marks everything reachable from live
// entries and queues the rest for removal; it must not run concurrently with
// builds whose results have not been registered yet.
package dag
