package ingest

import "strings"

// candidateDelimiters in tie-break order. Semicolon comes first because
// exports that use a decimal comma separate fields with semicolons.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

const sniffLines = 30

// sniffDelimiter picks the candidate whose most common per-line count is
// shared by the most lines, preferring the larger count on a tie.
func sniffDelimiter(lines []string) rune {
	best := candidateDelimiters[0]
	bestLines, bestCount := 0, 0

	for _, d := range candidateDelimiters {
		freq := make(map[int]int)
		seen := 0
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if seen == sniffLines {
				break
			}
			seen++
			if n := strings.Count(line, string(d)); n > 0 {
				freq[n]++
			}
		}

		modeCount, modeLines := 0, 0
		for count, nLines := range freq {
			if nLines > modeLines || (nLines == modeLines && count > modeCount) {
				modeCount, modeLines = count, nLines
			}
		}

		if modeLines > bestLines || (modeLines == bestLines && modeLines > 0 && modeCount > bestCount) {
			best, bestLines, bestCount = d, modeLines, modeCount
		}
	}
	return best
}
