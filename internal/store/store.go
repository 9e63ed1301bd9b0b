// internal/store/store.go
package store

// Namespaced key-value persistence with atomically incrementing counters.
// Each entry-point call runs inside exactly one Update: all reads and
// precondition checks happen before the writes commit, and an error rolls
// everything back, which is the call-level atomicity the ledger relies on.

// Record namespaces. Keys are the decimal encoding of the record's id, or
// the account id string for the per-account index namespaces.
const (
	NSAssets        = "assets"
	NSAssetIDByHash = "asset_id_by_hash"
	NSHolders       = "holders"
	NSOwnership     = "ownership"
	NSRequests      = "requests"
	NSPendingByProd = "pending_requests_by_producer"
	NSPendingByPub  = "pending_requests_by_publisher"
	NSGrants        = "grants"
	NSGrantsByProd  = "approved_by_producer"
	NSGrantsByPub   = "approved_by_publisher"
	NSTotalSupply   = "total_supply"
)

// Counter names for id allocation.
const (
	CounterAssets   = "asset_count"
	CounterHolders  = "holder_count"
	CounterRequests = "request_count"
	CounterGrants   = "grant_count"
)

// Tx is the view of the store inside one transaction. Values are serialized
// as JSON at this boundary; callers work with typed records only.
type Tx interface {
	// Get unmarshals the record at (ns, key) into out and reports whether
	// it existed.
	Get(ns, key string, out interface{}) (bool, error)
	Put(ns, key string, value interface{}) error
	Delete(ns, key string) error
	// NextID atomically increments the named counter and returns the new
	// value. Ids start at 1 and are never reused.
	NextID(counter string) (uint64, error)
}

// Store is the host-provided persistence collaborator.
type Store interface {
	// View runs fn read-only. Writes made through its Tx are rejected by
	// drivers that can enforce it and must not be relied upon.
	View(fn func(Tx) error) error
	// Update runs fn atomically: either every write commits or none do.
	Update(fn func(Tx) error) error
}
