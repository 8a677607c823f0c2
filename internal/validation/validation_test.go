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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	t.Run("ValidateValue test", func(t *testing.T) {
		err := ValidateValue("kanban:board-1", "required,channel,max=64")
		assert.Nil(t, err, "valid channel")

		err = ValidateValue("kanban board", "required,channel,max=64")
		assert.Equal(t, "channel", err.(Violation).Tag)

		err = ValidateValue("online/users", "required,channel,max=64")
		assert.Equal(t, "channel", err.(Violation).Tag)

		err = ValidateValue("", "required,channel,max=64")
		assert.Equal(t, "required", err.(Violation).Tag)

		err = ValidateValue("todo-42", "item_id")
		assert.Nil(t, err)

		err = ValidateValue("", "item_id")
		assert.Nil(t, err, "empty item is the idle state")

		err = ValidateValue("todo 42", "item_id")
		assert.Equal(t, "item_id", err.(Violation).Tag)

		err = ValidateValue("1h30m20s", "duration,min=2")
		assert.Nil(t, err, "valid time duration string format")

		err = ValidateValue("one hour", "duration,min=2")
		assert.Equal(t, "duration", err.(Violation).Tag)
	})

	t.Run("ValidateStruct test", func(t *testing.T) {
		type Record struct {
			UserID string `validate:"required"`
			Email  string `validate:"omitempty,email"`
			ItemID string `validate:"item_id"`
		}

		err := ValidateStruct(Record{UserID: "alice", Email: "alice@example.com", ItemID: "todo-1"})
		assert.NoError(t, err)

		err = ValidateStruct(Record{Email: "not-an-email", ItemID: "todo 1"})
		structError := err.(*StructError)
		assert.Len(t, structError.Violations, 3)
		assert.Equal(t, "UserID", structError.Violations[0].Field)
		assert.Contains(t, structError.Error(), "UserID is a required field")
	})

	t.Run("custom rule test", func(t *testing.T) {
		assert.NoError(t, RegisterValidation("lane", func(v FieldLevel) bool {
			s := v.Field().String()
			return s == "todo" || s == "doing" || s == "done"
		}))

		laneErr := errors.New("{0} must be one of todo, doing, done")
		assert.NoError(t, RegisterTranslation("lane", laneErr.Error()))

		err := ValidateValue("archived", "required,lane")
		assert.Equal(t, "lane", err.(Violation).Tag)
		assert.Nil(t, ValidateValue("doing", "required,lane"))
	})
}
