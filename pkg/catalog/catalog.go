// Package catalog orders the chapters of one manga by volume and chapter
// number and answers which chapter comes before or after another.
package catalog

import (
	"slices"
	"strconv"
	"strings"
)

// NoVolume groups chapters that carry no volume label. It always sorts after
// every numbered volume.
const NoVolume = "none"

// Entry is the minimum needed to navigate to a chapter.
type Entry struct {
	ID     string
	Number string
	Volume string
}

type Volume struct {
	Label    string
	Chapters []Entry
}

// Catalog is immutable once built; share it freely between readers.
type Catalog struct {
	volumes []Volume
}

// ParseNumber reads a chapter or volume label as a float. Labels that are
// not numbers count as 0 so sorting never fails on odd input.
func ParseNumber(label string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
	if err != nil {
		return 0
	}
	return n
}

func normalizeVolume(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return NoVolume
	}
	return label
}

func compareVolumes(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == NoVolume:
		return 1
	case b == NoVolume:
		return -1
	}
	na, nb := ParseNumber(a), ParseNumber(b)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}

func compareChapters(a, b Entry) int {
	na, nb := ParseNumber(a.Number), ParseNumber(b.Number)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}

// New groups entries by volume and sorts both levels numerically. Equal
// numbers keep the order in which they were given.
func New(entries []Entry) *Catalog {
	var order []string
	byVolume := make(map[string][]Entry)
	for _, e := range entries {
		e.Volume = normalizeVolume(e.Volume)
		if _, ok := byVolume[e.Volume]; !ok {
			order = append(order, e.Volume)
		}
		byVolume[e.Volume] = append(byVolume[e.Volume], e)
	}

	volumes := make([]Volume, 0, len(order))
	for _, label := range order {
		chapters := byVolume[label]
		slices.SortStableFunc(chapters, compareChapters)
		volumes = append(volumes, Volume{Label: label, Chapters: chapters})
	}
	slices.SortStableFunc(volumes, func(a, b Volume) int {
		return compareVolumes(a.Label, b.Label)
	})

	return &Catalog{volumes: volumes}
}

// Volumes returns a copy of the sorted volumes.
func (c *Catalog) Volumes() []Volume {
	out := make([]Volume, len(c.volumes))
	for i, v := range c.volumes {
		out[i] = Volume{Label: v.Label, Chapters: slices.Clone(v.Chapters)}
	}
	return out
}

// Len is the total number of chapters.
func (c *Catalog) Len() int {
	n := 0
	for _, v := range c.volumes {
		n += len(v.Chapters)
	}
	return n
}

// Find looks a chapter up by id.
func (c *Catalog) Find(id string) (Entry, bool) {
	for _, v := range c.volumes {
		for _, ch := range v.Chapters {
			if ch.ID == id {
				return ch, true
			}
		}
	}
	return Entry{}, false
}

func (c *Catalog) volumeIndex(label string) int {
	label = normalizeVolume(label)
	return slices.IndexFunc(c.volumes, func(v Volume) bool { return v.Label == label })
}

// Next returns the first chapter after number in the given volume, or the
// first chapter of the following volume. It reports false at the end of the
// catalog or when the volume is unknown.
func (c *Catalog) Next(volume, number string) (Entry, bool) {
	vi := c.volumeIndex(volume)
	if vi < 0 {
		return Entry{}, false
	}
	current := ParseNumber(number)

	for _, ch := range c.volumes[vi].Chapters {
		if ParseNumber(ch.Number) > current {
			return ch, true
		}
	}
	for _, v := range c.volumes[vi+1:] {
		if len(v.Chapters) > 0 {
			return v.Chapters[0], true
		}
	}
	return Entry{}, false
}

// Previous mirrors Next: the last chapter before number in the volume, or the
// last chapter of the preceding volume.
func (c *Catalog) Previous(volume, number string) (Entry, bool) {
	vi := c.volumeIndex(volume)
	if vi < 0 {
		return Entry{}, false
	}
	current := ParseNumber(number)

	chapters := c.volumes[vi].Chapters
	for i := len(chapters) - 1; i >= 0; i-- {
		if ParseNumber(chapters[i].Number) < current {
			return chapters[i], true
		}
	}
	for i := vi - 1; i >= 0; i-- {
		if prev := c.volumes[i].Chapters; len(prev) > 0 {
			return prev[len(prev)-1], true
		}
	}
	return Entry{}, false
}
