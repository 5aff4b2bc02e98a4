package ipeds

import (
	"math"
	"math/rand"
	"sort"
)

// SampledRow is one coded domain with its attached stratum.
type SampledRow struct {
	Domain  string
	Name    string
	Stratum string
}

// StratumStat compares a stratum's share of the population against its
// share of the drawn sample.
type StratumStat struct {
	Stratum    string
	Population int
	Sampled    int
}

// SampleResult is the drawn sample plus the prevalence table behind it.
type SampleResult struct {
	Selected   []SampledRow
	Prevalence []StratumStat
}

// Sample draws a stratified sample of the coded domains at the given rate.
// Allocation is proportional with largest-remainder rounding; any
// non-empty stratum contributes at least one row when the overall target
// is non-zero. The draw is deterministic for a given seed: domains sort
// within each stratum before a seeded shuffle picks the quota.
func Sample(domains []string, dir *Directory, rate float64, seed int64) SampleResult {
	byStratum := make(map[string][]SampledRow)
	for _, domain := range domains {
		row := SampledRow{Domain: domain, Stratum: UnknownStratum}
		if inst, ok := dir.Lookup(domain); ok {
			row.Name = inst.Name
			row.Stratum = inst.Stratum
		}
		byStratum[row.Stratum] = append(byStratum[row.Stratum], row)
	}

	strata := make([]string, 0, len(byStratum))
	for stratum := range byStratum {
		strata = append(strata, stratum)
	}
	sort.Strings(strata)

	quotas := allocate(byStratum, strata, rate)

	rng := rand.New(rand.NewSource(seed))
	var result SampleResult
	for _, stratum := range strata {
		rows := byStratum[stratum]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Domain < rows[j].Domain })
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		quota := quotas[stratum]
		if quota > len(rows) {
			quota = len(rows)
		}
		result.Selected = append(result.Selected, rows[:quota]...)
		result.Prevalence = append(result.Prevalence, StratumStat{
			Stratum:    stratum,
			Population: len(rows),
			Sampled:    quota,
		})
	}

	sort.Slice(result.Selected, func(i, j int) bool {
		if result.Selected[i].Stratum != result.Selected[j].Stratum {
			return result.Selected[i].Stratum < result.Selected[j].Stratum
		}
		return result.Selected[i].Domain < result.Selected[j].Domain
	})
	return result
}

// allocate distributes the overall target across strata proportionally,
// assigning leftover units to the largest fractional remainders, then
// bumps empty allocations for non-empty strata to one.
func allocate(byStratum map[string][]SampledRow, strata []string, rate float64) map[string]int {
	if rate < 0 {
		rate = 0
	}
	total := 0
	for _, rows := range byStratum {
		total += len(rows)
	}
	target := int(math.Round(rate * float64(total)))
	if target > total {
		target = total
	}

	quotas := make(map[string]int, len(strata))
	if target == 0 {
		return quotas
	}

	type remainder struct {
		stratum string
		frac    float64
	}
	var remainders []remainder
	allocated := 0
	for _, stratum := range strata {
		exact := rate * float64(len(byStratum[stratum]))
		floor := int(math.Floor(exact))
		quotas[stratum] = floor
		allocated += floor
		remainders = append(remainders, remainder{stratum: stratum, frac: exact - float64(floor)})
	}
	sort.SliceStable(remainders, func(i, j int) bool { return remainders[i].frac > remainders[j].frac })
	for i := 0; allocated < target && i < len(remainders); i++ {
		quotas[remainders[i].stratum]++
		allocated++
	}

	for _, stratum := range strata {
		if quotas[stratum] == 0 && len(byStratum[stratum]) > 0 {
			quotas[stratum] = 1
		}
	}
	return quotas
}
