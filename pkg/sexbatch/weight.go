package sexbatch

import (
	"errors"
	"strings"
)

// WeightKind tells the extractor how to interpret a weight image.
type WeightKind int

const (
	// RmsLike maps hold per-pixel standard deviations (MAP_RMS).
	RmsLike WeightKind = iota
	// WeightLike maps hold weights or inverse variances (MAP_WEIGHT).
	WeightLike
)

func (k WeightKind) String() string {
	switch k {
	case RmsLike:
		return "MAP_RMS"
	case WeightLike:
		return "MAP_WEIGHT"
	default:
		return "Unknown"
	}
}

// WeightMatch is a companion file found for a science image.
type WeightMatch struct {
	Name string
	Kind WeightKind
}

// ErrEmptyBaseName is the cause of the KindConfig PreconditionError returned
// when Resolve is called without a base name.
var ErrEmptyBaseName = errors.New("empty image base name")

// FitsExtensions are the literal spellings recognized as FITS files, in the
// order candidates are tried.
var FitsExtensions = []string{".fits", ".fit", ".FITS", ".FIT"}

var (
	rmsSuffixes    = []string{"_stddev", "_stdev", "_rms", "_unc", "_uncert", "_sigma"}
	weightSuffixes = []string{"_weight", "_wht", "_wt", "_ivar"}

	scienceMarkers = []string{"-int", "-sci"}
	rmsNames       = []string{"unc", "stddev", "stdev", "rms", "uncert", "sigma"}
	weightNames    = []string{"weight", "wht", "wt", "ivar"}
)

// Listing is the set of filenames present in one directory.
type Listing map[string]struct{}

// NewListing builds a Listing from filenames.
func NewListing(names ...string) Listing {
	l := make(Listing, len(names))
	for _, n := range names {
		l[n] = struct{}{}
	}
	return l
}

func (l Listing) Has(name string) bool {
	_, ok := l[name]
	return ok
}

// weightRule produces candidate stems for a base name, in priority order.
type weightRule struct {
	name       string
	kind       WeightKind
	candidates func(base string) []string
}

func suffixRule(name string, kind WeightKind, suffixes []string) weightRule {
	return weightRule{
		name: name,
		kind: kind,
		candidates: func(base string) []string {
			stems := make([]string, 0, len(suffixes))
			for _, s := range suffixes {
				stems = append(stems, base+s)
			}
			return stems
		},
	}
}

func replaceRule(name string, kind WeightKind, names []string) weightRule {
	return weightRule{
		name: name,
		kind: kind,
		candidates: func(base string) []string {
			var stems []string
			for _, marker := range scienceMarkers {
				if !strings.Contains(base, marker) {
					continue
				}
				for _, n := range names {
					stems = append(stems, strings.Replace(base, marker, "-"+n, 1))
				}
			}
			return stems
		},
	}
}

// weightRules is the resolution cascade. Earlier rules win.
var weightRules = []weightRule{
	suffixRule("suffix-rms", RmsLike, rmsSuffixes),
	suffixRule("suffix-weight", WeightLike, weightSuffixes),
	replaceRule("replace-rms", RmsLike, rmsNames),
	replaceRule("replace-weight", WeightLike, weightNames),
}

// match never returns the image itself: every candidate stem either gains a
// suffix or swaps -int/-sci for a different component.
func (r weightRule) match(base string, listing Listing) *WeightMatch {
	for _, stem := range r.candidates(base) {
		for _, ext := range FitsExtensions {
			if name := stem + ext; listing.Has(name) {
				return &WeightMatch{Name: name, Kind: r.kind}
			}
		}
	}
	return nil
}

// Resolve finds the weight companion for the image with the given base name
// (filename without extension) among the names in listing. It returns nil
// when no companion exists. The returned name is always a listing entry.
func Resolve(base string, listing Listing) (*WeightMatch, error) {
	if base == "" {
		return nil, newPrecondition(KindConfig, "resolving weight image", ErrEmptyBaseName)
	}
	for _, rule := range weightRules {
		if m := rule.match(base, listing); m != nil {
			return m, nil
		}
	}
	return nil, nil
}
