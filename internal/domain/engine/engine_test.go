package engine_test

import (
	"errors"
	"testing"

	engine "github.com/riftline/mmr/internal/domain/engine"
	formula "github.com/riftline/mmr/internal/domain/formula"
	"github.com/riftline/mmr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func duoGame() model.Game {
	return model.Game{
		SortKey: 1,
		Teams: []model.Team{
			{
				Placement: 1,
				Players: []model.PlayerGameStat{
					{PlayerKey: "alice", DisplayName: "Alice", Placement: 1, Kills: 5, Assists: 2, DamageDealt: 1000, Revives: 1},
				},
			},
			{
				Placement: 2,
				Players: []model.PlayerGameStat{
					{PlayerKey: "bob", DisplayName: "Bob", Placement: 2, Kills: 1, Assists: 0, DamageDealt: 200, Revives: 0},
				},
			},
		},
	}
}

func TestProcessGame(t *testing.T) {
	Convey("Given a processor with default parameters", t, func() {
		proc := engine.New()

		Convey("When processing a two-team game", func() {
			game := duoGame()
			pregame := map[model.PlayerKey]float64{"alice": 1600, "bob": 1400}

			results, err := proc.ProcessGame(game, pregame)

			Convey("Then it should yield one result per player", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 2)
				So(results, ShouldContainKey, model.PlayerKey("alice"))
				So(results, ShouldContainKey, model.PlayerKey("bob"))
			})

			Convey("And every result should share the lobby rating", func() {
				So(err, ShouldBeNil)
				So(results["alice"].LobbyRating, ShouldEqual, 1500)
				So(results["bob"].LobbyRating, ShouldEqual, 1500)
			})

			Convey("And the winner should gain while the loser bleeds", func() {
				So(err, ShouldBeNil)
				So(results["alice"].Delta, ShouldBeGreaterThan, 0)
				So(results["bob"].Delta, ShouldBeLessThan, 0)
				So(results["alice"].NewRating, ShouldEqual, 1600+results["alice"].Delta)
				So(results["bob"].NewRating, ShouldEqual, 1400+results["bob"].Delta)
			})

			Convey("And the input map should be left untouched", func() {
				So(err, ShouldBeNil)
				So(pregame["alice"], ShouldEqual, 1600)
				So(pregame["bob"], ShouldEqual, 1400)
				So(pregame, ShouldHaveLength, 2)
			})
		})

		Convey("When a player has never been rated before", func() {
			results, err := proc.ProcessGame(duoGame(), nil)

			Convey("Then they should be seeded at the initial rating, not errored", func() {
				So(err, ShouldBeNil)
				So(results["alice"].LobbyRating, ShouldEqual, formula.InitialRating)
				So(results["alice"].NewRating, ShouldEqual, formula.InitialRating+results["alice"].Delta)
			})
		})

		Convey("When the game has no players", func() {
			results, err := proc.ProcessGame(model.Game{SortKey: 1}, nil)

			Convey("Then it should be a no-op, not an error", func() {
				So(err, ShouldBeNil)
				So(results, ShouldBeEmpty)
			})
		})

		Convey("When the same player appears on two teams", func() {
			game := duoGame()
			game.Teams[1].Players[0].PlayerKey = "alice"

			results, err := proc.ProcessGame(game, nil)

			Convey("Then the game should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, engine.ErrDuplicatePlayer), ShouldBeTrue)
				So(results, ShouldBeNil)
			})
		})

		Convey("When everyone performs identically", func() {
			game := duoGame()
			game.Teams[1] = game.Teams[0]
			game.Teams[1].Players = []model.PlayerGameStat{game.Teams[0].Players[0]}
			game.Teams[1].Players[0].PlayerKey = "carol"

			results, err := proc.ProcessGame(game, map[model.PlayerKey]float64{"alice": 1500, "carol": 1500})

			Convey("Then nobody should move", func() {
				So(err, ShouldBeNil)
				So(results["alice"].Delta, ShouldEqual, 0)
				So(results["carol"].Delta, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a processor with custom parameters", t, func() {
		proc := engine.New(engine.WithParams(formula.New(formula.WithMaxChange(1))))

		Convey("When a player dominates the lobby", func() {
			results, err := proc.ProcessGame(duoGame(), nil)

			Convey("Then deltas should clamp to the tightened bound", func() {
				So(err, ShouldBeNil)
				So(results["alice"].Delta, ShouldBeLessThanOrEqualTo, 1)
				So(results["bob"].Delta, ShouldBeGreaterThanOrEqualTo, -1)
			})
		})

		Convey("Then the processor should report its parameters", func() {
			So(proc.Params().MaxChange, ShouldEqual, 1)
		})
	})
}
