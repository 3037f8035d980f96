package progress_test

import (
	"testing"

	progress "github.com/riftline/mmr/internal/adapters/progress"
	"github.com/riftline/mmr/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestReporters(t *testing.T) {
	Convey("Given the no-op reporter", t, func() {
		var rep progress.Reporter = progress.Noop{}

		Convey("Then reporting should do nothing and never panic", func() {
			So(func() { rep.Report("replayed 5/100 files") }, ShouldNotPanic)
		})
	})

	Convey("Given a log-backed reporter", t, func() {
		rep := progress.NewLogReporter(logger.Named("replay"))

		Convey("Then it should satisfy the Reporter contract", func() {
			var _ progress.Reporter = rep
			So(func() { rep.Report("persisted 500/1200 keys") }, ShouldNotPanic)
		})
	})
}
