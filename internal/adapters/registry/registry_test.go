package registry_test

import (
	"context"
	"path/filepath"
	"testing"

	registry "github.com/riftline/mmr/internal/adapters/registry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryStore(t *testing.T) {
	Convey("Given an in-memory registry", t, func() {
		store := registry.NewInMemoryStore()
		ctx := context.Background()

		Convey("When fetching keys that were never written", func() {
			got, err := store.FetchByKeys(ctx, []registry.ExternalKey{"a", "b"})

			Convey("Then the result should be empty, not an error", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When writing and fetching back", func() {
			So(store.WriteRating(ctx, "a", 1512.5), ShouldBeNil)
			So(store.WriteRating(ctx, "b", 1488), ShouldBeNil)

			got, err := store.FetchByKeys(ctx, []registry.ExternalKey{"a", "b", "c"})

			Convey("Then only the persisted keys should come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0], ShouldResemble, registry.PlayerRating{Key: "a", Rating: 1512.5})
				So(got[1], ShouldResemble, registry.PlayerRating{Key: "b", Rating: 1488})
			})

			Convey("And the write counter should track successful writes", func() {
				So(store.Writes(), ShouldEqual, 2)
				So(store.Len(), ShouldEqual, 2)
			})
		})

		Convey("When overwriting a rating", func() {
			store.Put("a", 1500)
			So(store.WriteRating(ctx, "a", 1600), ShouldBeNil)

			got, err := store.FetchByKeys(ctx, []registry.ExternalKey{"a"})
			So(err, ShouldBeNil)
			So(got[0].Rating, ShouldEqual, 1600)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a SQLite registry in a temp dir", t, func() {
		path := filepath.Join(t.TempDir(), "ratings.db")
		store, err := registry.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When fetching with no keys", func() {
			got, err := store.FetchByKeys(ctx, nil)

			Convey("Then it should short-circuit to nothing", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When writing a new player", func() {
			So(store.WriteRating(ctx, "steam:100", 1520.25), ShouldBeNil)

			got, err := store.FetchByKeys(ctx, []registry.ExternalKey{"steam:100"})

			Convey("Then the row should be created", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Key, ShouldEqual, registry.ExternalKey("steam:100"))
				So(got[0].Rating, ShouldEqual, 1520.25)
			})
		})

		Convey("When updating an existing player", func() {
			So(store.WriteRating(ctx, "steam:100", 1520.25), ShouldBeNil)
			So(store.WriteRating(ctx, "steam:100", 1490), ShouldBeNil)

			got, err := store.FetchByKeys(ctx, []registry.ExternalKey{"steam:100"})

			Convey("Then the same row should carry the new rating", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Rating, ShouldEqual, 1490)
			})
		})

		Convey("When fetching a mix of known and unknown keys", func() {
			So(store.WriteRating(ctx, "steam:1", 1501), ShouldBeNil)
			So(store.WriteRating(ctx, "steam:2", 1502), ShouldBeNil)

			got, err := store.FetchByKeys(ctx, []registry.ExternalKey{"steam:1", "steam:9", "steam:2"})

			Convey("Then unknown keys should simply be absent", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
			})
		})

		Convey("When reopening the same database file", func() {
			So(store.WriteRating(ctx, "steam:7", 1555), ShouldBeNil)

			reopened, err := registry.NewSQLiteStore(path)
			So(err, ShouldBeNil)

			got, err := reopened.FetchByKeys(ctx, []registry.ExternalKey{"steam:7"})

			Convey("Then the rating should survive", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Rating, ShouldEqual, 1555)
			})
		})
	})
}
