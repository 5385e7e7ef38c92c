// Package domain models Multidimensional Poverty Index (MPI) national results
// and the transformations that turn them into regional, population-weighted
// extracts.
//
// # Data Source
//
// Each survey vintage is published as one workbook per year,
// "Global MPI {year} National Results.xlsx", with two sheets that matter here:
//
//	"1.1 National MPI Results"          one row per country: MPI, headcount,
//	                                     intensity, population figures.
//	"1.3 Contribut'n of Deprivations"   one row per country: the share of the
//	                                     country's MPI contributed by each of
//	                                     the ten indicators, in percent.
//
// The sheets are independent extracts of the same survey. They are joined on
// the ISO country code and must agree exactly on MPI; any disagreement is a
// [SourceMismatchError].
//
// # Indicators and Dimensions
//
// Ten indicators are grouped into three dimensions:
//
//	Health:           Nutrition, Child Mortality
//	Education:        Years of Schooling, School Attendance
//	Living Standards: Cooking Fuel, Sanitation, Drinking Water, Electricity,
//	                  Housing, Assets
//
// Raw contributions are percentages of MPI and nominally sum to 100 per
// country. [Standardize] converts them to absolute contributions:
//
//	absolute = MPI * percent / 100
//
// so that the ten absolute values of a country sum to its MPI.
//
// # Weighting
//
// Within a partition (one region, or "Global") each country receives
//
//	Weight = population / sum(population)
//
// and every indicator gains a weighted twin "<Indicator>_w". Summing the
// weighted dimension columns over a partition yields the population-weighted
// MPI of that partition. The population column is the figure for year-2,
// e.g. "Population 2018" in the 2020 vintage.
//
// # Missing Values
//
// Empty cells are zero-filled at load time. A missing indicator therefore
// counts as zero deprivation, which understates poverty where data are truly
// missing.
package domain
