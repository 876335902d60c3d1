package domain

// Merge reconciles a local collection with a freshly fetched remote one.
//
// Conflict rule is remote precedence: every remote record is included in the
// output and any local record sharing its id is discarded, with no field-level
// diff or timestamp comparison. Local records whose id did not collide are
// appended after the remote records, keeping their original relative order and
// their synced state.
//
// Merge is pure: neither input slice is mutated. Calling it twice against the
// same remote snapshot yields the same collection.
func Merge(local, remote []Quote) []Quote {
	remoteIDs := make(map[string]struct{}, len(remote))

	merged := make([]Quote, 0, len(remote)+len(local))
	for i := range remote {
		remoteIDs[remote[i].ID] = struct{}{}
		merged = append(merged, remote[i])
	}

	for i := range local {
		if _, collides := remoteIDs[local[i].ID]; collides {
			continue
		}

		merged = append(merged, local[i])
	}

	return merged
}

// Discarded returns the local records that a Merge with the given remote
// snapshot would drop (id collision, remote wins). Used by the sync engine to
// surface the known silent-data-loss risk without changing merge output.
func Discarded(local, remote []Quote) []Quote {
	remoteIDs := make(map[string]struct{}, len(remote))
	for i := range remote {
		remoteIDs[remote[i].ID] = struct{}{}
	}

	var dropped []Quote

	for i := range local {
		if _, collides := remoteIDs[local[i].ID]; collides {
			dropped = append(dropped, local[i])
		}
	}

	return dropped
}

// Partition splits a collection into unsynced quotes (local edits not yet
// acknowledged by the remote) and the rest, preserving order in both halves.
func Partition(quotes []Quote) (unsynced, synced []Quote) {
	for i := range quotes {
		if quotes[i].Synced {
			synced = append(synced, quotes[i])
		} else {
			unsynced = append(unsynced, quotes[i])
		}
	}

	return unsynced, synced
}

// UniqueIDs reports whether no two quotes in the collection share an id.
func UniqueIDs(quotes []Quote) bool {
	seen := make(map[string]struct{}, len(quotes))

	for i := range quotes {
		if _, dup := seen[quotes[i].ID]; dup {
			return false
		}

		seen[quotes[i].ID] = struct{}{}
	}

	return true
}
