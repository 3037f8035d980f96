package standings_test

import (
	"fmt"
	"testing"

	"github.com/riftline/mmr/internal/domain/model"
	standings "github.com/riftline/mmr/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func result(key model.PlayerKey, placement int, newRating float64) model.RatingUpdateResult {
	return model.RatingUpdateResult{
		PlayerKey: key,
		Stat: model.PlayerGameStat{
			PlayerKey:   key,
			Placement:   placement,
			Kills:       3,
			Assists:     1,
			DamageDealt: 450,
			Revives:     1,
		},
		Delta:     newRating - 1500,
		NewRating: newRating,
	}
}

func TestStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := standings.NewStore()

		Convey("When initializing a new player", func() {
			st := store.GetOrInit("alice", "Alice")

			Convey("Then they should be seeded at 1500 with the seed in history", func() {
				So(st.Rating, ShouldEqual, 1500)
				So(st.History, ShouldResemble, []float64{1500})
				So(st.GamesPlayed, ShouldEqual, 0)
				So(store.Len(), ShouldEqual, 1)
			})

			Convey("And initializing again should not reset anything", func() {
				store.ApplyGameResult("alice", result("alice", 1, 1510))
				again := store.GetOrInit("alice", "Alice")
				So(again.Rating, ShouldEqual, 1510)
				So(again.GamesPlayed, ShouldEqual, 1)
			})
		})

		Convey("When seeding a player from a persisted rating", func() {
			store.Seed("bob", "Bob", 1620.5)

			Convey("Then the history should start at the persisted value", func() {
				st, ok := store.Get("bob")
				So(ok, ShouldBeTrue)
				So(st.Rating, ShouldEqual, 1620.5)
				So(st.History, ShouldResemble, []float64{1620.5})
			})

			Convey("And seeding the same key twice should be a no-op", func() {
				store.Seed("bob", "Bob", 900)
				So(store.Rating("bob"), ShouldEqual, 1620.5)
			})
		})

		Convey("When asking for a rating of an unseen player", func() {
			Convey("Then it should default without creating state", func() {
				So(store.Rating("ghost"), ShouldEqual, 1500)
				So(store.Len(), ShouldEqual, 0)
				_, ok := store.Get("ghost")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When applying game results", func() {
			store.ApplyGameResult("alice", result("alice", 1, 1512))
			store.ApplyGameResult("alice", result("alice", 3, 1520))
			store.ApplyGameResult("alice", result("alice", 7, 1508.5))

			st, ok := store.Get("alice")
			So(ok, ShouldBeTrue)

			Convey("Then the current rating should track the latest game", func() {
				So(st.Rating, ShouldEqual, 1508.5)
				So(store.Rating("alice"), ShouldEqual, 1508.5)
			})

			Convey("And the history should record every step after the seed", func() {
				So(st.History, ShouldResemble, []float64{1500, 1512, 1520, 1508.5})
			})

			Convey("And the totals should accumulate", func() {
				So(st.GamesPlayed, ShouldEqual, 3)
				So(st.Wins, ShouldEqual, 1)
				So(st.Top3, ShouldEqual, 2)
				So(st.Kills, ShouldEqual, 9)
				So(st.Assists, ShouldEqual, 3)
				So(st.DamageDealt, ShouldEqual, 1350)
				So(st.Revives, ShouldEqual, 3)
				So(st.UpdatedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a player plays more games than the history cap", func() {
			small := standings.NewStore(standings.WithHistoryCap(3))
			for i := 1; i <= 5; i++ {
				small.ApplyGameResult("alice", result("alice", 2, 1500+float64(i)))
			}

			Convey("Then the oldest entries should be dropped first", func() {
				st, _ := small.Get("alice")
				So(st.History, ShouldHaveLength, 3)
				So(st.History, ShouldResemble, []float64{1503, 1504, 1505})
			})
		})

		Convey("When taking a snapshot", func() {
			store.ApplyGameResult("carol", result("carol", 1, 1530))
			store.ApplyGameResult("alice", result("alice", 5, 1490))
			store.ApplyGameResult("bob", result("bob", 2, 1510))
			store.ApplyGameResult("dave", result("dave", 2, 1510))

			snap := store.Snapshot()

			Convey("Then it should be ordered by rating descending with stable ties", func() {
				keys := make([]model.PlayerKey, len(snap))
				for i, st := range snap {
					keys[i] = st.Key
				}
				So(keys, ShouldResemble, []model.PlayerKey{"carol", "bob", "dave", "alice"})
			})

			Convey("And mutating the snapshot should not leak into the store", func() {
				snap[0].History[0] = -1
				snap[0].Rating = -1
				st, _ := store.Get("carol")
				So(st.History[0], ShouldEqual, 1500)
				So(st.Rating, ShouldEqual, 1530)
			})
		})

		Convey("When many players are tracked", func() {
			for i := 0; i < 250; i++ {
				key := model.PlayerKey(fmt.Sprintf("p%03d", i))
				store.ApplyGameResult(key, result(key, 4, 1500+float64(i)))
			}

			Convey("Then Len and Snapshot should agree", func() {
				So(store.Len(), ShouldEqual, 250)
				So(store.Snapshot(), ShouldHaveLength, 250)
				So(store.Snapshot()[0].Rating, ShouldEqual, 1749)
			})
		})
	})
}
