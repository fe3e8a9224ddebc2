package main

import (
	"sort"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF writes the skeleton and one animation as a glTF 2.0 document.
// Bones become a node hierarchy, rotate keys become Z-axis quaternion
// channels and translate keys become translation channels, all stepped to
// match the pose-to-pose timing of the source document.
func ExportGLTF(bones []Bone, anim *Animation, name, path string) error {
	if len(bones) == 0 {
		return Error("no bones to export")
	}

	doc := gltf.NewDocument()

	// Bone offsets are stored relative to the canvas center, so a child's
	// local translation is its offset minus the parent's.
	nodeIndex := make(map[string]uint32, len(bones))
	boneByName := make(map[string]Bone, len(bones))
	for _, b := range bones {
		boneByName[b.Name] = b
	}
	for _, b := range bones {
		tx, ty := b.X, b.Y
		if parent, ok := boneByName[b.Parent]; ok {
			tx -= parent.X
			ty -= parent.Y
		}
		nodeIndex[b.Name] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: [3]float32{float32(tx), float32(ty), 0},
		})
	}
	for _, b := range bones {
		if parent, ok := nodeIndex[b.Parent]; ok {
			doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, nodeIndex[b.Name])
		} else {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, nodeIndex[b.Name])
		}
	}

	out := &gltf.Animation{Name: name}

	boneNames := make([]string, 0, len(anim.Tracks))
	for bone := range anim.Tracks {
		boneNames = append(boneNames, bone)
	}
	sort.Strings(boneNames)

	for _, bone := range boneNames {
		node, ok := nodeIndex[bone]
		if !ok {
			continue
		}
		track := anim.Tracks[bone]
		addRotationChannel(doc, out, node, track)
		addTranslationChannel(doc, out, node, track, doc.Nodes[node].Translation)
	}

	if len(out.Channels) > 0 {
		doc.Animations = append(doc.Animations, out)
	}
	for _, b := range doc.Buffers {
		if len(b.Data) > 0 && b.URI == "" {
			b.EmbeddedResource()
		}
	}
	return gltf.Save(doc, path)
}

func addRotationChannel(doc *gltf.Document, out *gltf.Animation, node uint32, track Track) {
	var times []float32
	var rotations [][4]float32
	for _, kf := range track {
		if kf.Rotation == nil {
			continue
		}
		q := mgl.QuatRotate(mgl.DegToRad(float32(*kf.Rotation)), mgl.Vec3{0, 0, 1})
		times = append(times, float32(kf.Time))
		rotations = append(rotations, [4]float32{q.X(), q.Y(), q.Z(), q.W})
	}
	if len(times) == 0 {
		return
	}
	sampler := &gltf.AnimationSampler{
		Input:         modeler.WriteAccessor(doc, gltf.TargetNone, times),
		Output:        modeler.WriteAccessor(doc, gltf.TargetNone, rotations),
		Interpolation: gltf.InterpolationStep,
	}
	out.Samplers = append(out.Samplers, sampler)
	out.Channels = append(out.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(out.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: gltf.TRSRotation,
		},
	})
}

func addTranslationChannel(doc *gltf.Document, out *gltf.Animation, node uint32, track Track, base [3]float32) {
	var times []float32
	var translations [][3]float32
	for _, kf := range track {
		if kf.X == nil && kf.Y == nil {
			continue
		}
		var dx, dy float64
		if kf.X != nil {
			dx = *kf.X
		}
		if kf.Y != nil {
			dy = *kf.Y
		}
		times = append(times, float32(kf.Time))
		translations = append(translations, [3]float32{
			base[0] + float32(dx),
			base[1] + float32(dy),
			base[2],
		})
	}
	if len(times) == 0 {
		return
	}
	sampler := &gltf.AnimationSampler{
		Input:         modeler.WriteAccessor(doc, gltf.TargetNone, times),
		Output:        modeler.WriteAccessor(doc, gltf.TargetNone, translations),
		Interpolation: gltf.InterpolationStep,
	}
	out.Samplers = append(out.Samplers, sampler)
	out.Channels = append(out.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(out.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: gltf.TRSTranslation,
		},
	})
}
