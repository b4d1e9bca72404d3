// Package scene loads scene definitions and tracks the active scene.
package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jscyril/soundscape/api"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no scene file is given
const DefaultPath = "config/scenes.yaml"

// Catalog holds the normalized scenes of one configuration source in load order
type Catalog struct {
	order    []string
	scenes   map[string]api.Scene
	warnings []playerrors.TrackWarning
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{scenes: make(map[string]api.Scene)}
}

// Names returns scene names in load order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Scene returns a copy of the named scene
func (c *Catalog) Scene(name string) (api.Scene, bool) {
	s, ok := c.scenes[name]
	if !ok {
		return api.Scene{}, false
	}
	return s.Clone(), true
}

// Len returns the number of scenes
func (c *Catalog) Len() int {
	return len(c.order)
}

// Warnings returns the track repairs made while loading
func (c *Catalog) Warnings() []playerrors.TrackWarning {
	return c.warnings
}

func (c *Catalog) add(s api.Scene) {
	c.order = append(c.order, s.Name)
	c.scenes[s.Name] = s
}

// LoadFile reads and parses a scene file. A missing file yields an empty catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCatalog(), nil
		}
		return nil, fmt.Errorf("read scene file: %w", err)
	}

	cat, err := Parse(data)
	if err != nil {
		if cfgErr, ok := err.(*playerrors.ConfigError); ok {
			cfgErr.Path = path
		}
		return nil, err
	}
	return cat, nil
}

// Parse builds a catalog from a YAML document.
// Structural problems fail with a *ConfigError; bad track fields are
// replaced with defaults and recorded as warnings.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &playerrors.ConfigError{Err: err}
	}

	cat := NewCatalog()
	if len(doc.Content) == 0 {
		return cat, nil
	}

	root := resolve(doc.Content[0])
	if isNull(root) {
		return cat, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, playerrors.NewConfigError(root.Line, "top level must be a mapping, got %s", kindName(root))
	}

	rootPairs, err := mappingPairs(root)
	if err != nil {
		return nil, err
	}

	scenes := lookup(rootPairs, "scenes")
	if scenes == nil || isNull(scenes) {
		return cat, nil
	}
	if scenes.Kind != yaml.MappingNode {
		return nil, playerrors.NewConfigError(scenes.Line, "scenes must be a mapping, got %s", kindName(scenes))
	}

	scenePairs, err := mappingPairs(scenes)
	if err != nil {
		return nil, err
	}

	for _, p := range scenePairs {
		key, value := p.key, p.value
		if key.Kind != yaml.ScalarNode {
			return nil, playerrors.NewConfigError(key.Line, "scene name must be a scalar")
		}
		name := key.Value
		if _, dup := cat.scenes[name]; dup {
			return nil, playerrors.NewConfigError(key.Line, "duplicate scene %q", name)
		}

		s, warnings, err := parseScene(name, value)
		if err != nil {
			return nil, err
		}
		cat.add(s)
		cat.warnings = append(cat.warnings, warnings...)
	}

	return cat, nil
}

func parseScene(name string, node *yaml.Node) (api.Scene, []playerrors.TrackWarning, error) {
	s := api.Scene{Name: name, Tracks: []api.TrackSpec{}}
	if isNull(node) {
		return s, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return s, nil, playerrors.NewConfigError(node.Line, "scene %q must be a mapping, got %s", name, kindName(node))
	}

	fields, err := mappingPairs(node)
	if err != nil {
		return s, nil, err
	}

	var warnings []playerrors.TrackWarning

	if desc := lookup(fields, "description"); desc != nil && !isNull(desc) {
		if desc.Kind == yaml.ScalarNode {
			s.Description = desc.Value
		} else {
			warnings = append(warnings, playerrors.TrackWarning{
				Scene: name, Track: -1, Field: "description", Reason: "is not a string, ignored",
			})
		}
	}

	tracks := lookup(fields, "tracks")
	if tracks == nil || isNull(tracks) {
		return s, warnings, nil
	}
	if tracks.Kind != yaml.SequenceNode {
		return s, nil, playerrors.NewConfigError(tracks.Line, "tracks of scene %q must be a list, got %s", name, kindName(tracks))
	}

	for i, item := range tracks.Content {
		track, w := parseTrack(name, i, resolve(item))
		s.Tracks = append(s.Tracks, track)
		warnings = append(warnings, w...)
	}

	return s, warnings, nil
}

// parseTrack never fails: every invalid field falls back to its default
func parseTrack(scene string, index int, node *yaml.Node) (api.TrackSpec, []playerrors.TrackWarning) {
	track := api.TrackSpec{Volume: api.DefaultTrackVolume, Loop: true}
	warn := func(field, reason string) playerrors.TrackWarning {
		return playerrors.TrackWarning{Scene: scene, Track: index, Field: field, Reason: reason}
	}

	if node.Kind != yaml.MappingNode {
		return track, []playerrors.TrackWarning{warn("entry", "is not a mapping, track disabled")}
	}

	fields, err := mappingPairs(node)
	if err != nil {
		reason := err.Error()
		var cfgErr *playerrors.ConfigError
		if errors.As(err, &cfgErr) {
			reason = cfgErr.Err.Error()
		}
		return track, []playerrors.TrackWarning{warn("entry", reason+", track disabled")}
	}

	var warnings []playerrors.TrackWarning

	path := lookup(fields, "path")
	switch {
	case path == nil || isNull(path):
		warnings = append(warnings, warn("path", "is missing, track disabled"))
	case path.Kind != yaml.ScalarNode || path.ShortTag() != "!!str":
		warnings = append(warnings, warn("path", "is not a string, track disabled"))
	default:
		track.Path = strings.TrimSpace(path.Value)
		if track.Path == "" {
			warnings = append(warnings, warn("path", "is empty, track disabled"))
		}
	}

	if vol := lookup(fields, "volume"); vol != nil && !isNull(vol) {
		v, ok := parseVolume(vol)
		if ok {
			track.Volume = v
		} else {
			warnings = append(warnings, warn("volume", fmt.Sprintf("%q is not a number in [0,1], using 1.0", vol.Value)))
		}
	}

	if loop := lookup(fields, "loop"); loop != nil && !isNull(loop) {
		var b bool
		if loop.Kind == yaml.ScalarNode && loop.ShortTag() == "!!bool" && loop.Decode(&b) == nil {
			track.Loop = b
		} else {
			warnings = append(warnings, warn("loop", fmt.Sprintf("%q is not a boolean, using true", loop.Value)))
		}
	}

	return track, warnings
}

// parseVolume accepts numbers and numeric strings within [0,1]
func parseVolume(node *yaml.Node) (float64, bool) {
	if node.Kind != yaml.ScalarNode {
		return 0, false
	}

	var v float64
	switch node.ShortTag() {
	case "!!int", "!!float":
		if err := node.Decode(&v); err != nil {
			return 0, false
		}
	case "!!str":
		f, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	return v, ValidVolume(v)
}

// ValidVolume reports whether v is a usable track volume
func ValidVolume(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// NormalizeVolume returns v when valid, otherwise the default track volume
func NormalizeVolume(v float64) float64 {
	if ValidVolume(v) {
		return v
	}
	return api.DefaultTrackVolume
}

// maxMergeDepth bounds how far merge keys are followed into other mappings
const maxMergeDepth = 32

// pair is one key/value entry of a mapping, aliases resolved
type pair struct {
	key, value *yaml.Node
}

// mappingPairs lists the entries of a mapping with "<<" merge keys expanded.
// Merged entries come first. Explicit keys override merged ones, and an
// earlier merged mapping overrides a later one.
func mappingPairs(mapping *yaml.Node) ([]pair, error) {
	return collectPairs(mapping, 0)
}

func collectPairs(mapping *yaml.Node, depth int) ([]pair, error) {
	if depth > maxMergeDepth {
		return nil, playerrors.NewConfigError(mapping.Line, "merge keys nested too deeply")
	}

	var explicit []pair
	var merges []*yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := resolve(mapping.Content[i]), resolve(mapping.Content[i+1])
		if isMergeKey(key) {
			merges = append(merges, value)
			continue
		}
		explicit = append(explicit, pair{key: key, value: value})
	}
	if len(merges) == 0 {
		return explicit, nil
	}

	seen := make(map[string]bool)
	for _, p := range explicit {
		if p.key.Kind == yaml.ScalarNode {
			seen[p.key.Value] = true
		}
	}

	var merged []pair
	for _, m := range merges {
		var sources []*yaml.Node
		switch m.Kind {
		case yaml.MappingNode:
			sources = []*yaml.Node{m}
		case yaml.SequenceNode:
			for _, item := range m.Content {
				sources = append(sources, resolve(item))
			}
		default:
			return nil, playerrors.NewConfigError(m.Line, "merge value must be a mapping or a list of mappings, got %s", kindName(m))
		}

		for _, src := range sources {
			if src.Kind != yaml.MappingNode {
				return nil, playerrors.NewConfigError(src.Line, "merged entry must be a mapping, got %s", kindName(src))
			}
			entries, err := collectPairs(src, depth+1)
			if err != nil {
				return nil, err
			}
			for _, p := range entries {
				if p.key.Kind == yaml.ScalarNode {
					if seen[p.key.Value] {
						continue
					}
					seen[p.key.Value] = true
				}
				merged = append(merged, p)
			}
		}
	}

	return append(merged, explicit...), nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!merge"
}

func lookup(pairs []pair, key string) *yaml.Node {
	for _, p := range pairs {
		if p.key.Kind == yaml.ScalarNode && p.key.Value == key {
			return p.value
		}
	}
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown"
	}
}

// Store loads scenes from a fixed path and logs repairs
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore creates a store for path; an empty path selects DefaultPath
func NewStore(path string, logger *log.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path, logger: logger}
}

// Path returns the scene file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the scene file, logging each repaired track field
func (s *Store) Load() (*Catalog, error) {
	cat, err := LoadFile(s.path)
	if err != nil {
		return nil, err
	}

	for _, w := range cat.Warnings() {
		s.logger.Warn("track data repaired",
			"scene", w.Scene, "track", w.Track, "field", w.Field, "reason", w.Reason)
	}
	s.logger.Debug("scenes loaded", "path", s.path, "count", cat.Len())
	return cat, nil
}
