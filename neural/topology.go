package neural

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTopology parses a hidden-layer description such as "9x2,4" into
// blocks: "9x2" is two layers of nine neurons, a bare "4" is one layer of four.
// It returns false for anything malformed, including an empty description.
func ParseTopology(s string) ([]LayerBlock, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var blocks []LayerBlock
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		width, count := part, "1"
		if i := strings.IndexAny(part, "xX*"); i >= 0 {
			width, count = part[:i], part[i+1:]
		}
		w, err := strconv.Atoi(strings.TrimSpace(width))
		if err != nil || w < 1 {
			return nil, false
		}
		c, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || c < 1 {
			return nil, false
		}
		blocks = append(blocks, LayerBlock{Width: w, Count: c})
	}
	return blocks, true
}

// FormatTopology renders blocks in the form accepted by ParseTopology.
func FormatTopology(blocks []LayerBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		if b.Count == 1 {
			parts[i] = strconv.Itoa(b.Width)
		} else {
			parts[i] = fmt.Sprintf("%dx%d", b.Width, b.Count)
		}
	}
	return strings.Join(parts, ",")
}
