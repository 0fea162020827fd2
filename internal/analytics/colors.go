package analytics

import "unicode/utf16"

// NeutralGray is reserved for synthetic overflow slices.
const NeutralGray = "#9CA3AF"

// Palette is the set of category colours. Overflow gray is not part of it.
var Palette = []string{
	"#4ADE80",
	"#60A5FA",
	"#F472B6",
	"#FBBF24",
	"#A78BFA",
	"#F87171",
	"#2DD4BF",
	"#FB923C",
	"#38BDF8",
	"#C084FC",
}

// ColorStrategy picks a colour for the i-th named slice.
type ColorStrategy func(label string, index int) string

// HashColor gives a label the same colour in every frame.
func HashColor(label string, _ int) string {
	return ColorFor(label)
}

// PaletteByOrder colours slices by rank, so neighbours never repeat until the
// palette wraps.
func PaletteByOrder(label string, index int) string {
	if IsOverflow(label) {
		return NeutralGray
	}
	if index < 0 {
		index = -index
	}
	return Palette[index%len(Palette)]
}

// ColorFor maps a label to a palette entry by a base-31 rolling hash over its
// UTF-16 code units with 32-bit wraparound.
func ColorFor(label string) string {
	if IsOverflow(label) {
		return NeutralGray
	}
	h := int64(labelHash(label))
	if h < 0 {
		h = -h
	}
	return Palette[h%int64(len(Palette))]
}

// IsOverflow reports whether label is one of the synthetic slice labels.
func IsOverflow(label string) bool {
	return label == LabelOther || label == LabelRemaining
}

func labelHash(label string) int32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(label)) {
		h = h*31 + int32(unit)
	}
	return h
}

func colorOf(strategy ColorStrategy, label string, index int) string {
	if IsOverflow(label) {
		return NeutralGray
	}
	return strategy(label, index)
}
