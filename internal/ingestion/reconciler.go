package ingestion

import (
	"leadsync/internal/calls"
	"leadsync/internal/provider"
)

// Reconcile decides which freshly fetched snapshots need (re)insertion.
//
// Merge policy:
// - not stored yet        -> process (insert)
// - stored, terminal      -> skip; terminal records are immutable to
//   re-ingestion even when the snapshot differs
// - stored, non-terminal  -> process (update)
//
// Input order is preserved. stored maps call_id -> call_status for the
// already-persisted subset.
func Reconcile(fetched []provider.RawCall, stored map[string]string) []provider.RawCall {
	out := make([]provider.RawCall, 0, len(fetched))
	for _, c := range fetched {
		status, ok := stored[c.CallID]
		if ok && calls.IsTerminalStatus(status) {
			continue
		}
		out = append(out, c)
	}
	return out
}
