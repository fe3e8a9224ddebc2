package main

import (
	"path/filepath"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	rootBoneLength    = 50
	defaultBoneLength = 50
	defaultSkinSize   = 100
	spineVersion      = "4.1.00"
)

// Bone offsets are stored relative to the canvas center, not to the parent
// bone's own position. True parent-relative offsets are a known
// simplification left out of this rigger.
type Bone struct {
	Name   string  `json:"name"`
	Parent string  `json:"parent,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Length float64 `json:"length"`
}

// Slot binds a visual attachment to a bone.
type Slot struct {
	Name       string `json:"name"`
	Bone       string `json:"bone"`
	Attachment string `json:"attachment"`
}

// IKConstraint is declared, not solved, by this pipeline.
type IKConstraint struct {
	Name         string   `json:"name"`
	Target       string   `json:"target"`
	Bones        []string `json:"bones"`
	Mix          float64  `json:"mix"`
	BendPositive bool     `json:"bendPositive"`
}

type SkinAttachment struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Path   string  `json:"path"`
}

// Skin maps slot name -> attachment name -> attachment placement.
type Skin map[string]map[string]SkinAttachment

type SkeletonMeta struct {
	Hash   string  `json:"hash"`
	Spine  string  `json:"spine"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Images string  `json:"images"`
	Audio  string  `json:"audio"`
}

// SpineProject is the persisted skeleton document. It is owned by exactly
// one character; the animations map grows monotonically as exports merge
// into it.
type SpineProject struct {
	Skeleton   SkeletonMeta              `json:"skeleton"`
	Bones      []Bone                    `json:"bones"`
	Slots      []Slot                    `json:"slots"`
	Skins      map[string]Skin           `json:"skins"`
	IK         []IKConstraint            `json:"ik"`
	Animations map[string]SpineAnimation `json:"animations"`
}

// attachmentName strips the extension from a layer image file name.
func attachmentName(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
}

// partAnchor computes the absolute anchor point of a part layer in skeleton
// space (origin bottom-left, Y up). Layers without geometry anchor at the
// canvas center.
func partAnchor(layer Layer, canvas Size) mgl.Vec2 {
	if layer.Position != nil && layer.Dimensions != nil {
		x := float32(layer.Position.X + layer.Dimensions.Width/2)
		y := float32(canvas.Height - layer.Position.Y - layer.Dimensions.Height/2)
		return mgl.Vec2{x, y}
	}
	return mgl.Vec2{float32(canvas.Width / 2), float32(canvas.Height / 2)}
}

// partParent finds the taxonomy parent of a part, defaulting to root for
// parts no hierarchy entry claims.
func partParent(part string, hierarchy map[string][]string) string {
	for parent, children := range hierarchy {
		for _, child := range children {
			if child == part {
				return parent
			}
		}
	}
	return "root"
}

// BuildSkeleton emits the bone and slot lists for the detected parts. The
// root bone always exists and sits at the canvas center. Parts are visited
// in the fixed synonym-table order so output is deterministic.
func BuildSkeleton(rig RigStructure, canvas Size) ([]Bone, []Slot) {
	center := mgl.Vec2{float32(canvas.Width / 2), float32(canvas.Height / 2)}

	bones := []Bone{{
		Name:   "root",
		X:      canvas.Width / 2,
		Y:      canvas.Height / 2,
		Length: rootBoneLength,
	}}
	slots := []Slot{}

	for _, part := range bodyParts {
		layer, ok := rig.Parts[part.key]
		if !ok {
			continue
		}

		offset := partAnchor(layer, canvas).Sub(center)
		length := float64(defaultBoneLength)
		if layer.Dimensions != nil {
			length = layer.Dimensions.Width
			if layer.Dimensions.Height > length {
				length = layer.Dimensions.Height
			}
			length /= 2
		}

		bones = append(bones, Bone{
			Name:   part.key,
			Parent: partParent(part.key, rig.Hierarchy),
			X:      float64(offset.X()),
			Y:      float64(offset.Y()),
			Length: length,
		})

		if layer.ImagePath != "" {
			slots = append(slots, Slot{
				Name:       "slot_" + part.key,
				Bone:       part.key,
				Attachment: attachmentName(layer.ImagePath),
			})
		}
	}

	return bones, slots
}

// BuildSkin emits one attachment per slotted part, placed at the local
// origin and sized to the layer.
func BuildSkin(rig RigStructure) Skin {
	skin := make(Skin)
	for _, part := range bodyParts {
		layer, ok := rig.Parts[part.key]
		if !ok || layer.ImagePath == "" {
			continue
		}
		w, h := float64(defaultSkinSize), float64(defaultSkinSize)
		if layer.Dimensions != nil {
			w, h = layer.Dimensions.Width, layer.Dimensions.Height
		}
		skin["slot_"+part.key] = map[string]SkinAttachment{
			attachmentName(layer.ImagePath): {
				Width:  w,
				Height: h,
				Path:   layer.ImagePath,
			},
		}
	}
	return skin
}

// ikPairs are the limb chains that get a declared one-bone constraint when
// both ends were detected. bendPositive is a fixed asymmetric default, not
// derived from geometry.
var ikPairs = []struct {
	proximal, distal string
	bendPositive     bool
}{
	{"arm_right", "hand_right", true},
	{"arm_left", "hand_left", false},
	{"leg_right", "foot_right", false},
	{"leg_left", "foot_left", false},
}

// BuildIK emits a constraint per limb pair whose proximal and distal parts
// are both present. A half-detected limb gets none; that is normal
// degradation, not an error.
func BuildIK(rig RigStructure) []IKConstraint {
	out := []IKConstraint{}
	for _, pair := range ikPairs {
		if _, ok := rig.Parts[pair.proximal]; !ok {
			continue
		}
		if _, ok := rig.Parts[pair.distal]; !ok {
			continue
		}
		out = append(out, IKConstraint{
			Name:         pair.proximal + "_ik",
			Target:       pair.distal,
			Bones:        []string{pair.proximal},
			Mix:          1,
			BendPositive: pair.bendPositive,
		})
	}
	return out
}

// BuildProject assembles the full skeleton document for a character.
func BuildProject(rig RigStructure, canvas Size, characterID string) *SpineProject {
	bones, slots := BuildSkeleton(rig, canvas)
	return &SpineProject{
		Skeleton: SkeletonMeta{
			Hash:   uuid.NewString(),
			Spine:  spineVersion,
			Width:  canvas.Width,
			Height: canvas.Height,
			Images: "../characters/" + characterID + "/",
		},
		Bones:      bones,
		Slots:      slots,
		Skins:      map[string]Skin{"default": BuildSkin(rig)},
		IK:         BuildIK(rig),
		Animations: map[string]SpineAnimation{},
	}
}
