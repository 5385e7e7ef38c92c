package domain

import (
	"fmt"
	"strings"
)

const (
	// GlobalRegion tags the partition holding every record of a year.
	GlobalRegion = "Global"
	// UnspecifiedRegion tags records whose region label is empty.
	UnspecifiedRegion = "Unspecified"
)

// Partition is a region-scoped (or Global) subset of one year's records.
type Partition struct {
	Region           string
	Year             int
	PopulationColumn string
	Records          []CountryYear
}

// Slug normalizes a region label for file names: lower-cased, with spaces
// and hyphens replaced by underscores. "Sub Saharan Africa" becomes
// "sub_saharan_africa". Slashes are replaced too, so a label never names a
// subdirectory.
func Slug(region string) string {
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(strings.ToLower(region))
}

// Stem returns the output name of a region and year, e.g. "south_asia_2021".
func Stem(region string, year int) string {
	return fmt.Sprintf("%s_%d", Slug(region), year)
}

// Stem returns the partition's output name.
func (p Partition) Stem() string { return Stem(p.Region, p.Year) }

// PartitionByRegion splits a year table into one partition per distinct
// region, in order of first appearance, followed by the Global partition.
// Every record lands in exactly one regional partition and in Global. The
// Region column is kept on every record; a blank label is rewritten to
// UnspecifiedRegion so it matches the partition it lands in.
func PartitionByRegion(t *YearTable) ([]Partition, error) {
	var order []string
	byRegion := make(map[string][]CountryYear)
	all := make([]CountryYear, len(t.Records))
	for i, rec := range t.Records {
		if strings.TrimSpace(rec.Region) == "" {
			rec.Region = UnspecifiedRegion
		}
		if _, ok := byRegion[rec.Region]; !ok {
			order = append(order, rec.Region)
		}
		byRegion[rec.Region] = append(byRegion[rec.Region], rec)
		all[i] = rec
	}

	stems := make(map[string]string, len(order)+1)
	parts := make([]Partition, 0, len(order)+1)
	for _, region := range append(order, GlobalRegion) {
		stem := Stem(region, t.Year)
		if other, taken := stems[stem]; taken {
			return nil, fmt.Errorf("%w: regions %q and %q both map to %q", ErrRegionCollision, other, region, stem)
		}
		stems[stem] = region

		records := byRegion[region]
		if region == GlobalRegion {
			records = all
		}
		parts = append(parts, Partition{
			Region:           region,
			Year:             t.Year,
			PopulationColumn: t.PopulationColumn,
			Records:          records,
		})
	}
	return parts, nil
}
