package skiplist

import (
	"math/rand"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"slserver/internal/value"
)

func sm(score, member string) (*value.Value, *value.Value) {
	return value.TryEncode([]byte(score)), value.TryEncode([]byte(member))
}

func TestNewSkiplist(t *testing.T) {
	Convey("When New is called", t, func() {
		sl := New()
		So(sl.Len(), ShouldEqual, 0)
		So(sl.First(), ShouldBeNil)
		So(sl.Tail(), ShouldBeNil)
	})
}

func TestInsert(t *testing.T) {
	Convey("Given an empty skiplist", t, func() {
		sl := New()

		Convey("inserting one pair makes it both head and tail", func() {
			score, member := sm("1", "a")
			sl.Insert(score, member)
			So(sl.Len(), ShouldEqual, 1)
			So(sl.First(), ShouldEqual, sl.Tail())
			So(string(sl.First().Score().Bytes()), ShouldEqual, "1")
			So(string(sl.First().Member().Bytes()), ShouldEqual, "a")
		})

		Convey("inserting several pairs orders them by score then member", func() {
			insertions := [][2]string{
				{"2", "c"}, {"1", "b"}, {"1", "a"}, {"3", "z"},
			}
			for _, p := range insertions {
				score, member := sm(p[0], p[1])
				sl.Insert(score, member)
			}

			var got [][2]string
			for n := sl.First(); n != nil; n = n.Next() {
				got = append(got, [2]string{string(n.Score().Bytes()), string(n.Member().Bytes())})
			}
			So(got, ShouldResemble, [][2]string{
				{"1", "a"}, {"1", "b"}, {"2", "c"}, {"3", "z"},
			})
		})

		Convey("the level-0 backward chain mirrors the forward chain in reverse", func() {
			for _, p := range [][2]string{{"1", "a"}, {"2", "b"}, {"3", "c"}} {
				score, member := sm(p[0], p[1])
				sl.Insert(score, member)
			}
			var reversed []string
			for n := sl.Tail(); n != nil; n = n.backward {
				reversed = append(reversed, string(n.Member().Bytes()))
			}
			So(reversed, ShouldResemble, []string{"c", "b", "a"})
		})
	})
}

func TestDeleteByScoreMember(t *testing.T) {
	Convey("Given a skiplist with several pairs", t, func() {
		sl := New()
		for _, p := range [][2]string{{"1", "a"}, {"1", "b"}, {"2", "c"}} {
			score, member := sm(p[0], p[1])
			sl.Insert(score, member)
		}

		Convey("deleting an exact match removes only that node", func() {
			score, member := sm("1", "a")
			ok := sl.DeleteByScoreMember(score, member)
			So(ok, ShouldBeTrue)
			So(sl.Len(), ShouldEqual, 2)

			var remaining []string
			for n := sl.First(); n != nil; n = n.Next() {
				remaining = append(remaining, string(n.Member().Bytes()))
			}
			So(remaining, ShouldResemble, []string{"b", "c"})
		})

		Convey("deleting the tail repairs the tail pointer", func() {
			score, member := sm("2", "c")
			sl.DeleteByScoreMember(score, member)
			So(string(sl.Tail().Member().Bytes()), ShouldEqual, "b")
		})

		Convey("deleting a non-existent pair reports false and changes nothing", func() {
			score, member := sm("1", "zzz")
			ok := sl.DeleteByScoreMember(score, member)
			So(ok, ShouldBeFalse)
			So(sl.Len(), ShouldEqual, 3)
		})

		Convey("deleting every node drains the list back to empty", func() {
			for _, p := range [][2]string{{"1", "a"}, {"1", "b"}, {"2", "c"}} {
				score, member := sm(p[0], p[1])
				sl.DeleteByScoreMember(score, member)
			}
			So(sl.Len(), ShouldEqual, 0)
			So(sl.First(), ShouldBeNil)
			So(sl.Tail(), ShouldBeNil)
		})
	})
}

func TestDeleteByScore(t *testing.T) {
	Convey("Given a skiplist with a multi-member score class", t, func() {
		sl := New()
		for _, p := range [][2]string{{"1", "a"}, {"1", "b"}, {"1", "c"}, {"2", "d"}} {
			score, member := sm(p[0], p[1])
			sl.Insert(score, member)
		}

		Convey("deleting that score removes the whole equivalence class atomically", func() {
			score, _ := sm("1", "")
			n := sl.DeleteByScore(score)
			So(n, ShouldEqual, 3)
			So(sl.Len(), ShouldEqual, 1)
			So(string(sl.First().Member().Bytes()), ShouldEqual, "d")
		})

		Convey("deleting an absent score removes nothing", func() {
			score, _ := sm("99", "")
			n := sl.DeleteByScore(score)
			So(n, ShouldEqual, 0)
			So(sl.Len(), ShouldEqual, 4)
		})
	})
}

func TestSearchSmallestNode(t *testing.T) {
	Convey("Given a skiplist with duplicate scores", t, func() {
		sl := New()
		for _, p := range [][2]string{{"1", "a"}, {"1", "b"}, {"1", "c"}, {"2", "z"}} {
			score, member := sm(p[0], p[1])
			sl.Insert(score, member)
		}

		Convey("search lands on the first node of the equivalence class", func() {
			score, _ := sm("1", "")
			first := sl.SearchSmallestNode(score)
			So(first, ShouldNotBeNil)
			So(string(first.Member().Bytes()), ShouldEqual, "a")
		})

		Convey("search for a missing score returns nil", func() {
			score, _ := sm("7", "")
			So(sl.SearchSmallestNode(score), ShouldBeNil)
		})
	})
}

// TestInsertDeleteProperty sweeps random insert/delete operations and checks
// that the level-0 chain always stays sorted and its length always matches
// Len, the round-trip invariant spec.md §8 asks for.
func TestInsertDeleteProperty(t *testing.T) {
	Convey("Given randomized insert/delete sequences", t, func() {
		sl := New()
		present := map[[2]string]bool{}

		for i := 0; i < 500; i++ {
			score := string(rune('a' + rand.Intn(5)))
			member := string(rune('a' + rand.Intn(20)))
			key := [2]string{score, member}

			if rand.Intn(2) == 0 {
				s, m := sm(score, member)
				// Insert permits duplicates; delete an exact match first, the
				// way the add command does, so the list models a set.
				sl.DeleteByScoreMember(s, m)
				sl.Insert(s, m)
				present[key] = true
			} else {
				s, m := sm(score, member)
				if sl.DeleteByScoreMember(s, m) {
					delete(present, key)
				}
			}
		}

		Convey("the chain stays sorted and its length matches the tracked set", func() {
			So(sl.Len(), ShouldEqual, len(present))

			var got [][2]string
			for n := sl.First(); n != nil; n = n.Next() {
				got = append(got, [2]string{string(n.Score().Bytes()), string(n.Member().Bytes())})
			}

			want := make([][2]string, 0, len(present))
			for k := range present {
				want = append(want, k)
			}
			sort.Slice(want, func(i, j int) bool {
				if want[i][0] != want[j][0] {
					return want[i][0] < want[j][0]
				}
				return want[i][1] < want[j][1]
			})

			So(got, ShouldResemble, want)
		})
	})
}
