package csv

import "strings"

// candidate delimiters in order of preference
var delimiters = []rune{',', ';', '\t'}

// DetectDelimiter detects the delimiter by scoring count consistency across
// the first few non-empty lines.
func DetectDelimiter(content string) rune {
	lines := strings.Split(content, "\n")

	sample := make([]string, 0, 5)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) >= 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best := ','
	maxConsistency := 0.0

	for _, delim := range delimiters {
		counts := make([]int, 0, len(sample))
		for _, line := range sample {
			counts = append(counts, strings.Count(line, string(delim)))
		}

		sum := 0
		for _, c := range counts {
			sum += c
		}
		avg := float64(sum) / float64(len(counts))
		if avg == 0 {
			continue
		}

		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avg
			variance += diff * diff
		}
		variance /= float64(len(counts))

		// lines should have similar counts of the real delimiter
		consistency := avg / (1.0 + variance)
		if consistency > maxConsistency {
			maxConsistency = consistency
			best = delim
		}
	}

	return best
}
