// Package codename derives a stable cosmetic alias from an identity
// fingerprint, so moderators see "quiet-amber-heron" instead of a raw
// opaque string. It is not an identity guarantee: collisions are fine.
package codename

// Sentinel is returned for an empty or missing fingerprint.
const Sentinel = "nameless-grey-echo"

var adjectives = []string{
	"quiet", "restless", "hollow", "gentle", "wandering", "faded",
	"hidden", "patient", "drifting", "silent", "curious", "weary",
	"bright", "solemn", "fleeting", "humble", "distant", "tender",
	"wistful", "steady", "lonely", "mellow", "earnest", "vivid",
}

var colors = []string{
	"amber", "crimson", "indigo", "olive", "slate", "coral",
	"ivory", "sage", "umber", "cobalt", "maroon", "pearl",
	"teal", "ochre", "lilac", "rust", "jade", "plum",
	"copper", "fawn", "onyx", "cream", "navy", "rose",
}

var nouns = []string{
	"heron", "lantern", "willow", "ember", "sparrow", "ripple",
	"meadow", "beacon", "thistle", "harbor", "cinder", "finch",
	"hollow", "drift", "grove", "wren", "pebble", "echo",
	"moth", "reed", "tide", "fern", "crow", "bloom",
}

// Offsets decorrelate the three list lookups so neighbouring seeds do not
// walk all lists in lockstep.
const (
	colorOffset = 7
	nounOffset  = 13
)

// FromFingerprint deterministically maps a fingerprint to an
// adjective-color-noun alias. The same fingerprint always yields the same
// codename across calls and restarts.
func FromFingerprint(fp string) string {
	if fp == "" {
		return Sentinel
	}

	var seed uint64
	for _, c := range fp {
		seed = seed*31 + uint64(c)
	}

	adj := adjectives[seed%uint64(len(adjectives))]
	col := colors[(seed+colorOffset)%uint64(len(colors))]
	noun := nouns[(seed+nounOffset)%uint64(len(nouns))]

	return adj + "-" + col + "-" + noun
}
