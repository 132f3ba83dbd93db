package sexbatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageRef is a science image found during discovery.
type ImageRef struct {
	Dir  string
	Base string
	Ext  string
}

func (r ImageRef) Name() string { return r.Base + r.Ext }
func (r ImageRef) Path() string { return filepath.Join(r.Dir, r.Name()) }

// SplitFitsName splits a filename into base name and one of FitsExtensions.
// ok is false when the name carries none of them or the base would be empty.
func SplitFitsName(name string) (base, ext string, ok bool) {
	for _, e := range FitsExtensions {
		if strings.HasSuffix(name, e) {
			base = strings.TrimSuffix(name, e)
			if base == "" {
				return "", "", false
			}
			return base, e, true
		}
	}
	return "", "", false
}

// Discover returns the FITS images of dir sorted by filename, together with
// the directory listing used to resolve their weight companions.
func Discover(dir string) ([]ImageRef, Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	listing := make(Listing, len(entries))
	var images []ImageRef
	for _, e := range entries {
		listing[e.Name()] = struct{}{}
		// Hidden files, such as macOS ._ resource forks, are never images.
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		base, ext, ok := SplitFitsName(e.Name())
		if !ok {
			continue
		}
		images = append(images, ImageRef{Dir: dir, Base: base, Ext: ext})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Name() < images[j].Name()
	})
	return images, listing, nil
}

// WithoutWeights drops images that are the weight companion of another image
// in the same set.
func WithoutWeights(images []ImageRef, listing Listing) []ImageRef {
	companions := make(map[string]bool)
	for _, img := range images {
		m, err := Resolve(img.Base, listing)
		if err != nil || m == nil {
			continue
		}
		companions[m.Name] = true
	}
	kept := make([]ImageRef, 0, len(images))
	for _, img := range images {
		if companions[img.Name()] {
			continue
		}
		kept = append(kept, img)
	}
	return kept
}
