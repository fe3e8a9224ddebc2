package main

import (
	"io"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestConvertAnimation(t *testing.T) {
	a := &Animation{
		Name:     "wave",
		Duration: 2.0,
		Tracks: map[string]Track{
			"arm_right": {
				kfRotXY(0.0, 0, 0, 0),
				kfRotXY(0.5, 45, 10, -20),
			},
			"hand_right": {
				kfRot(0.0, 0),
				kfRot(0.5, 15),
			},
			"face": {
				kfFace(0.0, "neutral"),
				kfFace(2.0, "happy"),
			},
		},
		Particles: []Particle{
			{Type: "sparkle", Count: 10, Duration: 2.0, Color: "#FFFF99"},
		},
	}

	sa := ConvertAnimation(a)

	arm := sa.Bones["arm_right"]
	require.NotNil(t, arm)
	require.Len(t, arm.Rotate, 2)
	assert.Equal(t, SpineRotateKey{Time: 0.5, Angle: 45, Curve: "stepped"}, arm.Rotate[1])
	require.Len(t, arm.Translate, 2)
	assert.Equal(t, SpineTranslateKey{Time: 0.5, X: 10, Y: -20, Curve: "stepped"}, arm.Translate[1])
	assert.Empty(t, arm.Scale)

	hand := sa.Bones["hand_right"]
	require.NotNil(t, hand)
	require.Len(t, hand.Rotate, 2)
	assert.Empty(t, hand.Translate)

	// The face track never becomes a bone timeline.
	_, ok := sa.Bones["face"]
	assert.False(t, ok)

	face := sa.Slots["slot_face"]
	require.NotNil(t, face)
	require.Len(t, face.Attachment, 2)
	assert.Equal(t, SpineAttachmentKey{Time: 0, Name: "face_neutral"}, face.Attachment[0])
	assert.Equal(t, SpineAttachmentKey{Time: 2.0, Name: "face_happy"}, face.Attachment[1])

	require.Len(t, sa.Events, 1)
	assert.Equal(t, SpineEvent{
		Time:   0,
		Name:   "effect_sparkle",
		String: "#FFFF99",
		Int:    10,
		Float:  2.0,
	}, sa.Events[0])

	assert.NotNil(t, sa.Deform)
	assert.NotNil(t, sa.DrawOrder)
}

func TestConvertAnimationDropsEmptyBoneTimelines(t *testing.T) {
	a := &Animation{
		Duration: 1.0,
		Tracks: map[string]Track{
			"body": {{Time: 0.0}, {Time: 1.0}},
		},
	}

	sa := ConvertAnimation(a)
	assert.Empty(t, sa.Bones)
}

func TestMergeAnimation(t *testing.T) {
	project := []byte(`{"skeleton":{"spine":"4.1.00"},"bones":[],"animations":{"walk":{"bones":{}}}}`)

	merged, err := MergeAnimation(project, "wave", &SpineAnimation{
		Bones:  map[string]*SpineBoneTimeline{},
		Slots:  map[string]*SpineSlotTimeline{},
		Deform: map[string]any{},
		Events: []SpineEvent{},
	})
	require.NoError(t, err)

	// The new entry joined the existing one; nothing else moved.
	assert.True(t, gjson.GetBytes(merged, "animations.wave").Exists())
	assert.True(t, gjson.GetBytes(merged, "animations.walk").Exists())
	assert.Equal(t, "4.1.00", gjson.GetBytes(merged, "skeleton.spine").String())
}

func TestMergeAnimationOverwritesSameKey(t *testing.T) {
	project := []byte(`{"animations":{"wave":{"events":[{"name":"old"}]}}}`)

	merged, err := MergeAnimation(project, "wave", &SpineAnimation{Events: []SpineEvent{}})
	require.NoError(t, err)

	assert.Equal(t, 0, int(gjson.GetBytes(merged, "animations.wave.events.#").Int()))
}

func TestMergeAnimationCreatesAnimationsMap(t *testing.T) {
	project := []byte(`{"bones":[]}`)

	merged, err := MergeAnimation(project, "idle", &SpineAnimation{})
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(merged, "animations.idle").Exists())
}

// exportFixture stores a character, a rig and one generated animation and
// returns the IDs needed to export.
func exportFixture(t *testing.T, storage *Storage) (characterID, animationID string) {
	t.Helper()

	characterID = "char_00000000_hero"
	layers := []Layer{
		pixelLayer("layer_0", "Body", 20, 40, 60, 80),
		pixelLayer("layer_1", "Head", 30, 0, 40, 40),
	}
	_, err := storage.NewCharacterDir(characterID)
	require.NoError(t, err)
	require.NoError(t, storage.SaveCharacterMetadata(&CharacterMetadata{
		CharacterID: characterID,
		Dimensions:  Size{Width: 100, Height: 120},
		LayersCount: len(layers),
		Layers:      layers,
		ImportedAt:  timestamp(),
	}))

	rig := InferStructure(layers)
	project := BuildProject(rig, Size{Width: 100, Height: 120}, characterID)
	require.NoError(t, storage.SaveRig(project, &RigMetadata{
		RigID:       "rig_00000000_" + characterID,
		CharacterID: characterID,
		BoneCount:   len(project.Bones),
		IKCount:     len(project.IK),
		CreatedAt:   timestamp(),
	}))

	synth := newSynthesizer(newTemplateLibrary())
	anim := synth.Synthesize("wave", "happy", 1.0, "happy wave with sparkles")
	animationID = "anim_00000000_wave"
	require.NoError(t, storage.SaveAnimation(anim, &AnimationMetadata{
		AnimationID:   animationID,
		CharacterID:   characterID,
		Description:   "happy wave with sparkles",
		AnimationType: "wave",
		Emotion:       "happy",
		Intensity:     1.0,
		Duration:      anim.Duration,
		CreatedAt:     timestamp(),
	}))
	return characterID, animationID
}

func TestExporterJSON(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)
	characterID, animationID := exportFixture(t, storage)

	e := newExporter(storage, MergeKeyType, testLogger())
	res, err := e.Export(characterID, animationID, "json")
	require.NoError(t, err)

	assert.Equal(t, "json", res.Format)
	assert.Equal(t, "wave", res.AnimationName)
	assert.NotEmpty(t, res.ExportID)

	data, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(data, "animations.wave").Exists())
	assert.True(t, gjson.GetBytes(data, "animations.wave.events.0").Exists())

	// The rig document accumulated the merge too.
	rigID, err := storage.FindRigForCharacter(characterID)
	require.NoError(t, err)
	projData, err := storage.RigProject(rigID)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(projData, "animations.wave").Exists())
	assert.Len(t, storage.ListExports(characterID), 1)
}

func TestExporterEmptyFormatDefaultsToJSON(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)
	characterID, animationID := exportFixture(t, storage)

	e := newExporter(storage, MergeKeyType, testLogger())
	res, err := e.Export(characterID, animationID, "")
	require.NoError(t, err)
	assert.Equal(t, "json", res.Format)
}

func TestExporterMergeByID(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)
	characterID, animationID := exportFixture(t, storage)

	e := newExporter(storage, MergeKeyID, testLogger())
	_, err = e.Export(characterID, animationID, "json")
	require.NoError(t, err)

	rigID, err := storage.FindRigForCharacter(characterID)
	require.NoError(t, err)
	projData, err := storage.RigProject(rigID)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(projData, "animations."+animationID).Exists())
}

func TestExporterGLTF(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)
	characterID, animationID := exportFixture(t, storage)

	e := newExporter(storage, MergeKeyType, testLogger())
	res, err := e.Export(characterID, animationID, "gltf")
	require.NoError(t, err)
	assert.Equal(t, "gltf", res.Format)

	info, err := os.Stat(res.FilePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExporterUnknownFormat(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)
	characterID, animationID := exportFixture(t, storage)

	e := newExporter(storage, MergeKeyType, testLogger())
	_, err = e.Export(characterID, animationID, "gif")
	assert.Error(t, err)
}

func TestExporterMissingAnimation(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)

	e := newExporter(storage, MergeKeyType, testLogger())
	_, err = e.Export("char_x", "anim_x", "json")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, errKind(err))
}

func TestExporterUnknownMergeKeyFallsBack(t *testing.T) {
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)

	e := newExporter(storage, "bogus", testLogger())
	assert.Equal(t, MergeKeyType, e.mergeKey)
}
