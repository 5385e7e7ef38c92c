package domain

// Indicator identifies one of the ten MPI deprivation indicators.
type Indicator int

const (
	Nutrition Indicator = iota
	ChildMortality
	YearsOfSchooling
	SchoolAttendance
	CookingFuel
	Sanitation
	DrinkingWater
	Electricity
	Housing
	Assets
)

// NumIndicators is the number of deprivation indicators.
const NumIndicators = 10

// WeightedSuffix is appended to indicator and dimension names for their
// population-weighted columns.
const WeightedSuffix = "_w"

var indicatorNames = [NumIndicators]string{
	"Nutrition",
	"Child Mortality",
	"Years of Schooling",
	"School Attendance",
	"Cooking Fuel",
	"Sanitation",
	"Drinking Water",
	"Electricity",
	"Housing",
	"Assets",
}

// String returns the column name of the indicator, e.g. "Child Mortality".
func (i Indicator) String() string {
	if i < 0 || int(i) >= NumIndicators {
		return "Unknown"
	}
	return indicatorNames[i]
}

// WeightedName returns the weighted column name, e.g. "Child Mortality_w".
func (i Indicator) WeightedName() string {
	return i.String() + WeightedSuffix
}

// Indicators returns every indicator in column order.
func Indicators() []Indicator {
	out := make([]Indicator, NumIndicators)
	for i := range out {
		out[i] = Indicator(i)
	}
	return out
}

// Dimension is one of the three groupings of indicators.
type Dimension int

const (
	Health Dimension = iota
	Education
	LivingStandards
)

var dimensionNames = [...]string{"Health", "Education", "Living Standards"}

var dimensionIndicators = [...][]Indicator{
	Health:          {Nutrition, ChildMortality},
	Education:       {YearsOfSchooling, SchoolAttendance},
	LivingStandards: {CookingFuel, Sanitation, DrinkingWater, Electricity, Housing, Assets},
}

// Dimensions returns the three dimensions in column order.
func Dimensions() []Dimension {
	return []Dimension{Health, Education, LivingStandards}
}

func (d Dimension) String() string {
	if d < 0 || int(d) >= len(dimensionNames) {
		return "Unknown"
	}
	return dimensionNames[d]
}

// WeightedName returns the weighted column name, e.g. "Health_w".
func (d Dimension) WeightedName() string {
	return d.String() + WeightedSuffix
}

// Indicators returns the indicators that make up the dimension.
func (d Dimension) Indicators() []Indicator {
	return dimensionIndicators[d]
}

// Contributions holds one value per indicator, indexed by Indicator.
type Contributions [NumIndicators]float64

// Sum adds all ten values.
func (c Contributions) Sum() float64 {
	var s float64
	for _, v := range c {
		s += v
	}
	return s
}

// Dimension adds the values of the indicators in d, in column order.
func (c Contributions) Dimension(d Dimension) float64 {
	var s float64
	for _, ind := range d.Indicators() {
		s += c[ind]
	}
	return s
}
