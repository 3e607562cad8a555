package streak

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"
)

type StreakTrackerTestSuite struct {
	suite.Suite
}

func TestStreakTrackerSuite(t *testing.T) {
	suite.Run(t, new(StreakTrackerTestSuite))
}

func (suite *StreakTrackerTestSuite) TestInitialState() {
	tracker := NewTracker()

	suite.Equal(KindNone, tracker.CurrentKind())
	suite.Equal(0, tracker.Current(KindWon))
	suite.Equal(0, tracker.Current(KindLost))
	suite.Empty(tracker.WonHistory())
	suite.Empty(tracker.LostHistory())
}

func (suite *StreakTrackerTestSuite) TestClassify() {
	suite.Equal(KindWon, Classify(10))
	suite.Equal(KindWon, Classify(0))
	suite.Equal(KindLost, Classify(-0.01))
}

func (suite *StreakTrackerTestSuite) TestFirstTradeLeavesZeroInOppositeHistory() {
	tracker := NewTracker()
	tracker.Record(5)

	suite.Equal(KindWon, tracker.CurrentKind())
	suite.Equal(1, tracker.Current(KindWon))
	suite.Equal([]int{0}, tracker.LostHistory())
	suite.Empty(tracker.WonHistory())

	lossFirst := NewTracker()
	lossFirst.Record(-5)

	suite.Equal([]int{0}, lossFirst.WonHistory())
	suite.Empty(lossFirst.LostHistory())
}

func (suite *StreakTrackerTestSuite) TestConcreteSequence() {
	tracker := NewTracker()

	var kinds []Kind
	for _, pnl := range []float64{10, -5, 20, -3, -2, 15} {
		kinds = append(kinds, tracker.Record(pnl))
	}

	suite.Equal([]Kind{KindWon, KindLost, KindWon, KindLost, KindLost, KindWon}, kinds)
	suite.Equal([]int{1, 1}, tracker.WonHistory())
	suite.Equal([]int{0, 1, 2}, tracker.LostHistory())
	suite.Equal(KindWon, tracker.CurrentKind())
	suite.Equal(1, tracker.Current(KindWon))
	suite.Equal(0, tracker.Current(KindLost))
}

func (suite *StreakTrackerTestSuite) TestSameSignExtendsRun() {
	tracker := NewTracker()
	for _, pnl := range []float64{1, 2, 0, 3} {
		tracker.Record(pnl)
	}

	suite.Equal(4, tracker.Current(KindWon))
	suite.Equal([]int{0}, tracker.LostHistory())
	suite.Empty(tracker.WonHistory())
}

func (suite *StreakTrackerTestSuite) TestHistoryIsACopy() {
	tracker := NewTracker()
	tracker.Record(1)

	history := tracker.History(KindLost)
	history[0] = 42

	suite.Equal([]int{0}, tracker.LostHistory())
	suite.Nil(tracker.History(KindNone))
}

func (suite *StreakTrackerTestSuite) TestRunLengthsAddUpToTradeCounts() {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		tracker := NewTracker()
		won, lost := 0, 0
		n := rng.Intn(200)

		for i := 0; i < n; i++ {
			pnl := rng.Float64()*2 - 1
			if tracker.Record(pnl) == KindWon {
				won++
			} else {
				lost++
			}
		}

		suite.Equal(won, sum(tracker.WonHistory())+tracker.Current(KindWon))
		suite.Equal(lost, sum(tracker.LostHistory())+tracker.Current(KindLost))
	}
}

func (suite *StreakTrackerTestSuite) TestReset() {
	tracker := NewTracker()
	tracker.Record(1)
	tracker.Record(-1)
	tracker.Reset()

	suite.Equal(KindNone, tracker.CurrentKind())
	suite.Equal(0, tracker.Current(KindWon))
	suite.Equal(0, tracker.Current(KindLost))
	suite.Empty(tracker.WonHistory())
	suite.Empty(tracker.LostHistory())
}

func (suite *StreakTrackerTestSuite) TestKindString() {
	suite.Equal("Won", KindWon.String())
	suite.Equal("Lost", KindLost.String())
	suite.Equal("None", KindNone.String())
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}

	return total
}
