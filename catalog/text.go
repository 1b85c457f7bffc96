package catalog

import "strings"

// TextScore ranks c against a free-text keyword. Each term scores on the
// fields it hits; zero means no match.
func TextScore(c Component, keyword string) float64 {
	terms := strings.Fields(strings.ToLower(keyword))
	if len(terms) == 0 {
		return 0
	}

	part := strings.ToLower(c.PartNumber)
	manufacturer := strings.ToLower(c.ManufacturerName)
	partType := strings.ToLower(c.PartType)
	labels := c.FamilyPath.RootToLeaf()

	var score float64
	for _, term := range terms {
		switch {
		case part == term:
			score += 10
		case strings.HasPrefix(part, term):
			score += 5
		case strings.Contains(part, term):
			score += 3
		}
		if strings.Contains(manufacturer, term) {
			score += 2
		}
		if strings.Contains(partType, term) {
			score += 1.5
		}
		for _, l := range labels {
			if strings.Contains(strings.ToLower(l), term) {
				score++
				break
			}
		}
	}
	return score
}
