/*
 * Copyright 2026 The learn-supabase Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package presence

// ApplySync rebuilds both projections from a full snapshot. Neither output
// shares state with the input or with any earlier projection.
func ApplySync(snapshot Snapshot) (Roster, EditingMap) {
	return buildRoster(snapshot), buildEditingMap(snapshot)
}

// ApplyJoin recomputes the editing map after records joined. The joined
// records are already part of the current snapshot, so only the snapshot is
// scanned. The roster is left to the next sync.
func ApplyJoin(_ []Record, current Snapshot) EditingMap {
	return buildEditingMap(current)
}

// ApplyLeave removes the claims carried by the departed records. A claim is
// removed even if another user has taken the item over since.
func ApplyLeave(left []Record, prior EditingMap) EditingMap {
	next := prior.Clone()
	for _, r := range left {
		if r.IsEditing() {
			delete(next, r.EditingItemID)
		}
	}
	return next
}

// ApplyLeaveOwned is ApplyLeave restricted to claims still held by the
// departing user.
func ApplyLeaveOwned(left []Record, prior EditingMap) EditingMap {
	next := prior.Clone()
	for _, r := range left {
		if !r.IsEditing() {
			continue
		}
		if next[r.EditingItemID] == r.UserID {
			delete(next, r.EditingItemID)
		}
	}
	return next
}

// buildRoster keys each connection's records by the user of its first
// record. Empty lists and records without a user are skipped.
func buildRoster(snapshot Snapshot) Roster {
	roster := make(Roster, len(snapshot))
	for _, key := range snapshot.Keys() {
		records := snapshot[key]
		if len(records) == 0 || records[0].UserID == "" {
			continue
		}

		// NOTE: a later key of the same user replaces the earlier one.
		roster[records[0].UserID] = append([]Record(nil), records...)
	}
	return roster
}

func buildEditingMap(snapshot Snapshot) EditingMap {
	editing := make(EditingMap)
	for _, key := range snapshot.Keys() {
		for _, r := range snapshot[key] {
			if r.IsEditing() {
				editing[r.EditingItemID] = r.UserID
			}
		}
	}
	return editing
}
