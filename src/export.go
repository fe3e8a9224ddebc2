package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Spine-format animation timelines. All keys use stepped interpolation; no
// tangent or curve smoothing is computed.

type SpineRotateKey struct {
	Time  float64 `json:"time"`
	Angle float64 `json:"angle"`
	Curve string  `json:"curve"`
}

type SpineTranslateKey struct {
	Time  float64 `json:"time"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Curve string  `json:"curve"`
}

type SpineScaleKey struct {
	Time  float64 `json:"time"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Curve string  `json:"curve"`
}

type SpineBoneTimeline struct {
	Rotate    []SpineRotateKey    `json:"rotate"`
	Translate []SpineTranslateKey `json:"translate"`
	Scale     []SpineScaleKey     `json:"scale"`
}

type SpineAttachmentKey struct {
	Time float64 `json:"time"`
	Name string  `json:"name"`
}

type SpineSlotTimeline struct {
	Attachment []SpineAttachmentKey `json:"attachment"`
}

type SpineEvent struct {
	Time   float64 `json:"time"`
	Name   string  `json:"name"`
	String string  `json:"string"`
	Int    int     `json:"int"`
	Float  float64 `json:"float"`
}

type SpineAnimation struct {
	Bones     map[string]*SpineBoneTimeline `json:"bones"`
	Slots     map[string]*SpineSlotTimeline `json:"slots"`
	Deform    map[string]any                `json:"deform"`
	DrawOrder []any                         `json:"drawOrder"`
	Events    []SpineEvent                  `json:"events"`
}

const curveStepped = "stepped"

// ConvertAnimation turns the internal track representation into Spine
// timelines. A bone track contributes only if at least one keyframe produced
// a rotate or translate entry; the face track becomes a slot attachment
// timeline; particles become time-zero events.
func ConvertAnimation(a *Animation) *SpineAnimation {
	out := &SpineAnimation{
		Bones:     map[string]*SpineBoneTimeline{},
		Slots:     map[string]*SpineSlotTimeline{},
		Deform:    map[string]any{},
		DrawOrder: []any{},
		Events:    []SpineEvent{},
	}

	for name, track := range a.Tracks {
		if name == "face" {
			continue
		}
		tl := &SpineBoneTimeline{
			Rotate:    []SpineRotateKey{},
			Translate: []SpineTranslateKey{},
			Scale:     []SpineScaleKey{},
		}
		for _, kf := range track {
			if kf.Rotation != nil {
				tl.Rotate = append(tl.Rotate, SpineRotateKey{
					Time:  kf.Time,
					Angle: *kf.Rotation,
					Curve: curveStepped,
				})
			}
			if kf.X != nil || kf.Y != nil {
				tk := SpineTranslateKey{Time: kf.Time, Curve: curveStepped}
				if kf.X != nil {
					tk.X = *kf.X
				}
				if kf.Y != nil {
					tk.Y = *kf.Y
				}
				tl.Translate = append(tl.Translate, tk)
			}
		}
		if len(tl.Rotate) > 0 || len(tl.Translate) > 0 {
			out.Bones[name] = tl
		}
	}

	if face, ok := a.Tracks["face"]; ok {
		tl := &SpineSlotTimeline{Attachment: []SpineAttachmentKey{}}
		for _, kf := range face {
			if kf.Expression != "" {
				tl.Attachment = append(tl.Attachment, SpineAttachmentKey{
					Time: kf.Time,
					Name: "face_" + kf.Expression,
				})
			}
		}
		out.Slots["slot_face"] = tl
	}

	for _, p := range a.Particles {
		out.Events = append(out.Events, SpineEvent{
			Time:   0,
			Name:   "effect_" + p.Type,
			String: p.Color,
			Int:    p.Count,
			Float:  p.Duration,
		})
	}

	return out
}

// Merge policies for storing an exported animation in the skeleton
// document's animations map.
const (
	MergeKeyType = "type" // one canonical animation per motion type
	MergeKeyID   = "id"   // every export kept under its unique animation ID
)

// MergeAnimation inserts the converted animation into a skeleton project
// document without touching anything else in it. Under the default type
// policy, re-exporting the same motion type overwrites the prior entry.
func MergeAnimation(project []byte, key string, anim *SpineAnimation) ([]byte, error) {
	if !gjson.GetBytes(project, "animations").Exists() {
		var err error
		if project, err = sjson.SetRawBytes(project, "animations", []byte(`{}`)); err != nil {
			return nil, err
		}
	}
	buf, err := json.Marshal(anim)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(project, "animations."+key, buf)
}

// ExportResult is what the export operation reports back to the caller.
type ExportResult struct {
	ExportID      string
	Format        string
	FilePath      string
	AnimationName string
}

// Exporter converts a stored animation against a character's rig document
// and writes the export artifact. The rig document itself is updated
// wholesale (read, merge, write) so its animations map accumulates exports.
type Exporter struct {
	storage  *Storage
	mergeKey string
	logger   *log.Logger
}

func newExporter(storage *Storage, mergeKey string, logger *log.Logger) *Exporter {
	if mergeKey != MergeKeyType && mergeKey != MergeKeyID {
		logger.Printf("Warning: unknown merge key %q, using %q", mergeKey, MergeKeyType)
		mergeKey = MergeKeyType
	}
	return &Exporter{storage: storage, mergeKey: mergeKey, logger: logger}
}

// Export looks up the animation and the character's rig, merges the
// converted animation into the rig document and writes the requested
// artifact into a fresh export directory. Formats: json (full merged
// project) or gltf.
func (e *Exporter) Export(characterID, animationID, format string) (*ExportResult, error) {
	anim, err := e.storage.AnimationData(animationID)
	if err != nil {
		return nil, err
	}
	meta, err := e.storage.AnimationMetadata(animationID)
	if err != nil {
		return nil, err
	}

	rigID, err := e.storage.FindRigForCharacter(characterID)
	if err != nil {
		return nil, err
	}
	project, err := e.storage.RigProject(rigID)
	if err != nil {
		return nil, err
	}

	animationName := meta.AnimationType
	if animationName == "" {
		animationName = "animation"
	}
	key := animationName
	if e.mergeKey == MergeKeyID {
		key = animationID
	}

	merged, err := MergeAnimation(project, key, ConvertAnimation(anim))
	if err != nil {
		return nil, Error("failed to merge animation into rig document: " + err.Error())
	}
	if err := e.storage.SaveRigProject(rigID, merged); err != nil {
		return nil, err
	}

	exportID := newID("export", animationID)
	exportDir, err := e.storage.NewExportDir(exportID)
	if err != nil {
		return nil, err
	}
	if err := e.storage.SaveExportMetadata(exportDir, ExportMetadata{
		ExportID:    exportID,
		CharacterID: characterID,
		AnimationID: animationID,
		Format:      format,
		CreatedAt:   timestamp(),
	}); err != nil {
		return nil, err
	}

	var exportPath string
	switch format {
	case "", "json":
		format = "json"
		exportPath = filepath.Join(exportDir, animationName+".json")
		if err := os.WriteFile(exportPath, merged, 0o644); err != nil {
			return nil, Error("failed to write export: " + err.Error())
		}
	case "gltf":
		exportPath = filepath.Join(exportDir, animationName+".gltf")
		var proj SpineProject
		if err := json.Unmarshal(merged, &proj); err != nil {
			return nil, Error("rig document is not a valid skeleton project: " + err.Error())
		}
		if err := ExportGLTF(proj.Bones, anim, animationName, exportPath); err != nil {
			return nil, Error("failed to write glTF export: " + err.Error())
		}
	default:
		return nil, Error("unsupported export format: " + format)
	}

	return &ExportResult{
		ExportID:      exportID,
		Format:        format,
		FilePath:      exportPath,
		AnimationName: animationName,
	}, nil
}
