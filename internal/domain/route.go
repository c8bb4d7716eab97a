package domain

// Strategy names the algorithm that produced a RouteSolution.
type Strategy string

const (
	StrategyTrivial   Strategy = "trivial"
	StrategyExact     Strategy = "exact"
	StrategyHeuristic Strategy = "heuristic"
)

// RouteSolution is the solver output for one day. Path holds location
// indices without the origin; ArrivalTimes[i] is the minute of day service
// starts at Path[i] (after any wait for opening), DepartureTimes[i] is when
// the traveler leaves it. TotalCost is travel minutes only.
//
// It is immutable planning data: accessors hand out copies.
type RouteSolution struct {
	path           []int
	arrivalTimes   []int
	departureTimes []int
	totalCost      int
	strategy       Strategy
}

func NewRouteSolution(path, arrivals, departures []int, totalCost int, strategy Strategy) *RouteSolution {
	return &RouteSolution{
		path:           append([]int{}, path...),
		arrivalTimes:   append([]int{}, arrivals...),
		departureTimes: append([]int{}, departures...),
		totalCost:      totalCost,
		strategy:       strategy,
	}
}

func (s *RouteSolution) Path() []int           { return append([]int{}, s.path...) }
func (s *RouteSolution) ArrivalTimes() []int   { return append([]int{}, s.arrivalTimes...) }
func (s *RouteSolution) DepartureTimes() []int { return append([]int{}, s.departureTimes...) }
func (s *RouteSolution) TotalCost() int        { return s.totalCost }
func (s *RouteSolution) Strategy() Strategy    { return s.strategy }
func (s *RouteSolution) Len() int              { return len(s.path) }
