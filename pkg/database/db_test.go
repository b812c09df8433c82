package database

import (
	"strings"
	"testing"
)

func TestSoftDeleteQuery(t *testing.T) {
	t.Run("null notes treated as empty", func(t *testing.T) {
		q := softDeleteQuery(1)
		if !strings.Contains(q, "notes IS NULL OR notes = ''") {
			t.Errorf("query must handle NULL notes before concatenating, got:\n%s", q)
		}
		if !strings.Contains(q, "CONCAT(notes,") {
			t.Errorf("query must append to existing notes, got:\n%s", q)
		}
	})

	t.Run("placeholder count matches bindings", func(t *testing.T) {
		// two note binds (one per CASE branch) plus one per lead id
		for _, n := range []int{1, 3, 10} {
			q := softDeleteQuery(n)
			if got, want := strings.Count(q, "?"), n+2; got != want {
				t.Errorf("softDeleteQuery(%d) has %d placeholders, want %d", n, got, want)
			}
		}
	})

	t.Run("soft delete fields set", func(t *testing.T) {
		q := softDeleteQuery(2)
		for _, want := range []string{"is_deleted = 1", "deleted_at = NOW()", "updated_at = NOW()"} {
			if !strings.Contains(q, want) {
				t.Errorf("query missing %q:\n%s", want, q)
			}
		}
	})
}
