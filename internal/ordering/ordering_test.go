package ordering

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type entry struct {
	id    string
	order int
}

func (e *entry) Key() string    { return e.id }
func (e *entry) SetOrder(i int) { e.order = i }

func keys(s []entry) []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.id
	}
	return out
}

func requireContiguous(t require.TestingT, s []entry) {
	for i, e := range s {
		require.Equal(t, i, e.order, "element %q at position %d", e.id, i)
	}
}

func seq(ids ...string) []entry {
	var s []entry
	for _, id := range ids {
		s = Append(s, entry{id: id, order: 99})
	}
	return s
}

func TestInsertClampsIndex(t *testing.T) {
	s := seq("a", "b", "c")

	s = Insert(s, 10, entry{id: "d"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys(s))

	s = Insert(s, -3, entry{id: "z"})
	assert.Equal(t, []string{"z", "a", "b", "c", "d"}, keys(s))

	s = Insert(s, 2, entry{id: "m", order: 42})
	assert.Equal(t, []string{"z", "a", "m", "b", "c", "d"}, keys(s))
	requireContiguous(t, s)
}

func TestMove(t *testing.T) {
	s := seq("a", "b", "c", "d")

	s, err := Move(s, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, keys(s))
	requireContiguous(t, s)

	s, err = Move(s, "d", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "c", "a"}, keys(s))
	requireContiguous(t, s)
}

func TestMoveBounds(t *testing.T) {
	s := seq("a", "b", "c")

	_, err := Move(s, "a", 3)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = Move(s, "a", -1)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = Move(s, "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"a", "b", "c"}, keys(s))
}

func TestRemoveReindexes(t *testing.T) {
	s := seq("a", "b", "c")

	s, err := Remove(s, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys(s))
	requireContiguous(t, s)

	_, err = Remove(s, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Any sequence of operations leaves order == position and never loses or
// duplicates an element.
func TestOrderInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var s []entry
		live := map[string]bool{}
		next := 0

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.IntRange(0, 2).Draw(t, "op")
			switch {
			case op == 0 || len(s) == 0:
				id := strconv.Itoa(next)
				next++
				at := rapid.IntRange(-2, len(s)+2).Draw(t, "at")
				s = Insert(s, at, entry{id: id, order: rapid.Int().Draw(t, "bogusOrder")})
				live[id] = true
			case op == 1:
				id := s[rapid.IntRange(0, len(s)-1).Draw(t, "from")].id
				to := rapid.IntRange(-1, len(s)).Draw(t, "to")
				before := keys(s)
				var err error
				s, err = Move(s, id, to)
				if to < 0 || to >= len(before) {
					if err != ErrInvalidIndex {
						t.Fatalf("move to %d of %d: want ErrInvalidIndex, got %v", to, len(before), err)
					}
				} else if err != nil {
					t.Fatalf("move: %v", err)
				} else if s[to].id != id {
					t.Fatalf("moved element %q not at %d", id, to)
				}
			default:
				id := s[rapid.IntRange(0, len(s)-1).Draw(t, "victim")].id
				var err error
				if s, err = Remove(s, id); err != nil {
					t.Fatalf("remove: %v", err)
				}
				delete(live, id)
			}

			if len(s) != len(live) {
				t.Fatalf("length %d, want %d", len(s), len(live))
			}
			for pos, e := range s {
				if e.order != pos {
					t.Fatalf("element %q has order %d at position %d", e.id, e.order, pos)
				}
				if !live[e.id] {
					t.Fatalf("unexpected element %q", e.id)
				}
			}
		}
	})
}

// Moving one element keeps the relative order of everything else.
func TestMovePreservesOthersProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		ids := make([]string, n)
		for i := range ids {
			ids[i] = strconv.Itoa(i)
		}
		s := seq(ids...)
		id := ids[rapid.IntRange(0, n-1).Draw(t, "from")]
		to := rapid.IntRange(0, n-1).Draw(t, "to")

		moved, err := Move(s, id, to)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		var rest []string
		for _, k := range keys(moved) {
			if k != id {
				rest = append(rest, k)
			}
		}
		var want []string
		for _, k := range ids {
			if k != id {
				want = append(want, k)
			}
		}
		assert.Equal(t, want, rest)
	})
}
