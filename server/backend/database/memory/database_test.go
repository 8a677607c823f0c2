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

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZeroCho/learn-supabase/server/backend/database/memory"
	"github.com/ZeroCho/learn-supabase/server/backend/database/testcases"
)

func TestDB(t *testing.T) {
	db, err := memory.New()
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()

	t.Run("RunUpsertPresence test", func(t *testing.T) {
		testcases.RunUpsertPresenceTest(t, db, "upsert")
	})

	t.Run("RunFindPresences test", func(t *testing.T) {
		testcases.RunFindPresencesTest(t, db, "find")
	})

	t.Run("RunDeletePresence test", func(t *testing.T) {
		testcases.RunDeletePresenceTest(t, db, "delete")
	})
}
