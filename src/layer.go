package main

import (
	"strings"

	"golang.org/x/text/width"
)

// Point and Size are canvas-space coordinates, origin top-left, Y down.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layer is one node of the decoded image layer tree. Group layers carry
// children and no image; pixel layers carry geometry and an optional image
// file name. The tree is produced once at import and never mutated.
type Layer struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"type"` // "group" or "pixel"
	Path       string  `json:"path"`
	Visible    bool    `json:"visible"`
	Position   *Point  `json:"position,omitempty"`
	Dimensions *Size   `json:"dimensions,omitempty"`
	Opacity    float64 `json:"opacity,omitempty"`
	BlendMode  string  `json:"blend_mode,omitempty"`
	ImagePath  string  `json:"image_path,omitempty"`
	Children   []Layer `json:"children,omitempty"`
}

const (
	layerKindGroup = "group"
	layerKindPixel = "pixel"
)

// flattenLayers walks the tree depth-first and returns the pixel layers in
// traversal order. Groups are structural only and never emitted.
func flattenLayers(layers []Layer) []Layer {
	var out []Layer
	for _, l := range layers {
		if l.Kind != layerKindGroup {
			out = append(out, l)
		}
		if len(l.Children) > 0 {
			out = append(out, flattenLayers(l.Children)...)
		}
	}
	return out
}

// bodyParts maps rig part keys to layer-name synonyms, in match-priority
// order. A layer is assigned to the first key with a synonym that occurs in
// its normalized name.
var bodyParts = []struct {
	key      string
	synonyms []string
}{
	{"head", []string{"head", "face", "hair"}},
	{"body", []string{"body", "torso", "chest"}},
	{"arm_right", []string{"arm_right", "right_arm", "rightarm"}},
	{"arm_left", []string{"arm_left", "left_arm", "leftarm"}},
	{"hand_right", []string{"hand_right", "right_hand", "righthand"}},
	{"hand_left", []string{"hand_left", "left_hand", "lefthand"}},
	{"leg_right", []string{"leg_right", "right_leg", "rightleg"}},
	{"leg_left", []string{"leg_left", "left_leg", "leftleg"}},
	{"foot_right", []string{"foot_right", "right_foot", "rightfoot"}},
	{"foot_left", []string{"foot_left", "left_foot", "leftfoot"}},
}

// partHierarchy is the fixed body taxonomy. It is emitted in full for every
// rig regardless of which parts were detected; downstream builders tolerate
// missing parts.
var partHierarchy = map[string][]string{
	"root":      {"body"},
	"body":      {"head", "arm_left", "arm_right", "leg_left", "leg_right"},
	"arm_left":  {"hand_left"},
	"arm_right": {"hand_right"},
	"leg_left":  {"foot_left"},
	"leg_right": {"foot_right"},
}

// RigStructure is the inferred part-to-layer mapping plus the fixed
// taxonomy.
type RigStructure struct {
	Parts     map[string]Layer    `json:"parts"`
	Hierarchy map[string][]string `json:"hierarchy"`
}

// normalizeLayerName folds full-width characters to their narrow forms and
// lower-cases. PSDs authored in CJK tools routinely carry full-width ASCII
// layer names.
func normalizeLayerName(name string) string {
	return strings.ToLower(width.Fold.String(name))
}

// InferStructure matches flattened pixel layers against the body-part
// synonym table. When several layers match the same part, the last one in
// traversal order (bottom-to-top, front-to-back) wins. Layers matching
// nothing are decorative and silently skipped.
func InferStructure(layers []Layer) RigStructure {
	rig := RigStructure{
		Parts:     make(map[string]Layer),
		Hierarchy: partHierarchy,
	}
	for _, layer := range flattenLayers(layers) {
		name := normalizeLayerName(layer.Name)
		for _, part := range bodyParts {
			matched := false
			for _, syn := range part.synonyms {
				if strings.Contains(name, syn) {
					matched = true
					break
				}
			}
			if matched {
				rig.Parts[part.key] = layer
				break
			}
		}
	}
	return rig
}
