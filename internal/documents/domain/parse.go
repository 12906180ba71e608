package documents

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCageLines parses the bulk cage entry format: one line per cage,
// whitespace-separated "cageNo birdCount weightKg". Malformed or
// non-positive lines are skipped, matching how staff paste rough notes.
func ParseCageLines(text string) []CageLine {
	lines := make([]CageLine, 0)
	for _, raw := range strings.Split(text, "\n") {
		fields := strings.Fields(raw)
		if len(fields) < 3 {
			continue
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil || count <= 0 {
			continue
		}
		weight, err := decimal.NewFromString(fields[2])
		if err != nil || !weight.IsPositive() {
			continue
		}
		lines = append(lines, CageLine{CageNo: fields[0], BirdCount: count, WeightKg: weight})
	}
	return lines
}
