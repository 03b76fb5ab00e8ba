package models

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"path"
	"slices"

	"instapi/pkg/logger"
	"instapi/pkg/storage"
	"instapi/pkg/wire"
)

// ErrEmptyCandidates is returned when a resource would have no renditions.
var ErrEmptyCandidates = errors.New("candidates can't be empty")

// Candidate is one rendition of a photo or video.
type Candidate struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// CandidateSchema declares the wire keys of a rendition.
var CandidateSchema = wire.NewSchema("Candidate",
	wire.Required("width"),
	wire.Required("height"),
	wire.Required("url"),
)

// Compare orders candidates by width, then height. The URL does not take
// part, so two renditions of equal size compare as equal.
func (c Candidate) Compare(other Candidate) int {
	if n := cmp.Compare(c.Width, other.Width); n != 0 {
		return n
	}
	return cmp.Compare(c.Height, other.Height)
}

// Less reports whether c ranks below other.
func (c Candidate) Less(other Candidate) bool {
	return c.Compare(other) < 0
}

// Equal reports whether c and other have the same dimensions.
func (c Candidate) Equal(other Candidate) bool {
	return c.Compare(other) == 0
}

// Kind tags the two resource variants.
type Kind uint8

const (
	KindNone Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "none"
	}
}

// Resource is one logical photo or video with at least one rendition.
type Resource struct {
	kind       Kind
	candidates []Candidate
}

// NewResource builds a resource of the given kind.
func NewResource(kind Kind, candidates ...Candidate) (Resource, error) {
	if kind != KindImage && kind != KindVideo {
		return Resource{}, fmt.Errorf("invalid resource kind %q", kind)
	}
	if len(candidates) == 0 {
		return Resource{}, ErrEmptyCandidates
	}
	return Resource{kind: kind, candidates: slices.Clone(candidates)}, nil
}

// NewImage builds an image resource.
func NewImage(candidates ...Candidate) (Resource, error) {
	return NewResource(KindImage, candidates...)
}

// NewVideo builds a video resource.
func NewVideo(candidates ...Candidate) (Resource, error) {
	return NewResource(KindVideo, candidates...)
}

func (r Resource) Kind() Kind    { return r.kind }
func (r Resource) IsImage() bool { return r.kind == KindImage }
func (r Resource) IsVideo() bool { return r.kind == KindVideo }
func (r Resource) IsZero() bool  { return len(r.candidates) == 0 }
func (r Resource) URL() string   { return r.Best().URL }
func (r Resource) Width() int    { return r.Best().Width }
func (r Resource) Height() int   { return r.Best().Height }

// Candidates returns a copy of the renditions in wire order.
func (r Resource) Candidates() []Candidate {
	return slices.Clone(r.candidates)
}

// Best returns a rendition with the greatest (width, height). Which of
// several equally sized renditions is returned is unspecified.
func (r Resource) Best() Candidate {
	if len(r.candidates) == 0 {
		return Candidate{}
	}
	return slices.MaxFunc(r.candidates, Candidate.Compare)
}

// Filename is the last path segment of the best rendition's URL, query
// excluded.
func (r Resource) Filename() string {
	return filenameFromURL(r.URL())
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// MarshalJSON encodes the resource in the shape the remote uses for media
// items, so that ResolveOne accepts the result.
func (r Resource) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case KindVideo:
		return json.Marshal(map[string]any{"video_versions": r.candidates})
	case KindImage:
		return json.Marshal(map[string]any{
			"image_versions2": map[string]any{"candidates": r.candidates},
		})
	default:
		return []byte("null"), nil
	}
}

// Download saves the best rendition into the manager's directory. An empty
// name falls back to Filename.
func (r Resource) Download(ctx context.Context, d Downloader, m *storage.Manager, name string) (string, error) {
	if r.IsZero() {
		return "", ErrEmptyCandidates
	}
	if name == "" {
		name = r.Filename()
	}
	if name == "" {
		return "", fmt.Errorf("cannot derive a file name from %q", r.URL())
	}

	body, err := d.Download(ctx, r.URL())
	if err != nil {
		logger.LogDownload(logger.GetLogger(), r.URL(), name, err)
		return "", err
	}
	defer body.Close()

	saved, err := m.Save(name, body)
	logger.LogDownload(logger.GetLogger(), r.URL(), saved, err)
	return saved, err
}

// Classify decides which resource kind a media item holds. Video renditions
// take precedence over image renditions.
func Classify(item wire.Dict) Kind {
	switch {
	case wire.Has(item, "video_versions"):
		return KindVideo
	case wire.Has(item, "image_versions2"):
		return KindImage
	default:
		return KindNone
	}
}

// BuildResource decodes rendition entries into a resource of the given kind.
func BuildResource(kind Kind, entries []wire.Dict) (Resource, error) {
	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		c, err := wire.Create[Candidate](e, CandidateSchema)
		if err != nil {
			return Resource{}, err
		}
		candidates = append(candidates, c)
	}
	return NewResource(kind, candidates...)
}

// ResolveOne builds the resource held by item. It reports false for items
// that hold neither kind.
func ResolveOne(item wire.Dict) (Resource, bool, error) {
	kind := Classify(item)
	var entries []wire.Dict
	switch kind {
	case KindVideo:
		entries = wire.Items(item, "video_versions")
	case KindImage:
		entries = wire.Items(item, "image_versions2.candidates")
	default:
		return Resource{}, false, nil
	}
	r, err := BuildResource(kind, entries)
	if err != nil {
		return Resource{}, false, fmt.Errorf("%s resource: %w", kind, err)
	}
	return r, true, nil
}

// ResolveMany lazily resolves each item in order, keeping the kinds asked
// for. Items holding neither kind are skipped.
func ResolveMany(items []wire.Dict, wantVideo, wantImage bool) iter.Seq2[Resource, error] {
	return func(yield func(Resource, error) bool) {
		for _, item := range items {
			switch Classify(item) {
			case KindVideo:
				if !wantVideo {
					continue
				}
			case KindImage:
				if !wantImage {
					continue
				}
			default:
				continue
			}

			r, _, err := ResolveOne(item)
			if err != nil {
				yield(Resource{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// mediaItems expands a media info blob into its carousel entries, or the blob
// itself for single-item posts.
func mediaItems(info wire.Dict) []wire.Dict {
	if _, ok := info["carousel_media"]; ok {
		return wire.Items(info, "carousel_media")
	}
	return []wire.Dict{info}
}
