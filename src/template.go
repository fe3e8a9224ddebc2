package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// EmotionModifier shifts a base motion's face expression and movement
// character. Factors are neutral at 1.0.
type EmotionModifier struct {
	Name           string
	BaseExpression string
	BlinkRate      float64
	Speed          float64
	Bounce         float64
	Energy         float64
}

// intensityWord maps an adverb to an intensity scalar. Checked in table
// order, first hit wins.
type intensityWord struct {
	word  string
	value float64
}

var intensityWords = []intensityWord{
	{"very", 1.5},
	{"extremely", 2.0},
	{"slightly", 0.7},
	{"barely", 0.5},
	{"incredibly", 2.0},
	{"super", 1.8},
	{"little", 0.6},
}

// TemplateLibrary holds the base motion templates and emotion modifiers.
// It is read-only after initialization: Motion hands out deep copies so no
// caller can corrupt the stored data.
type TemplateLibrary struct {
	order    []string
	motions  map[string]*Animation
	emotions []EmotionModifier
}

func newTemplateLibrary() *TemplateLibrary {
	tl := &TemplateLibrary{
		motions: make(map[string]*Animation),
	}
	for _, a := range builtinTemplates() {
		tl.add(a)
	}
	tl.emotions = builtinEmotions()
	return tl
}

func (tl *TemplateLibrary) add(a *Animation) {
	key := a.Name
	if _, ok := tl.motions[key]; !ok {
		tl.order = append(tl.order, key)
	}
	tl.motions[key] = a
}

// MotionNames returns the template names in definition order. The order
// drives keyword-match priority.
func (tl *TemplateLibrary) MotionNames() []string {
	return tl.order
}

// Motion returns a deep copy of the named template. Unknown names fall back
// to "idle".
func (tl *TemplateLibrary) Motion(name string) *Animation {
	a, ok := tl.motions[name]
	if !ok {
		fmt.Printf("Warning: unknown animation type: %v, using idle\n", name)
		a = tl.motions["idle"]
	}
	return a.clone()
}

// Has reports whether a template with the given name exists.
func (tl *TemplateLibrary) Has(name string) bool {
	_, ok := tl.motions[name]
	return ok
}

// EmotionNames returns the emotion names in definition order.
func (tl *TemplateLibrary) EmotionNames() []string {
	names := make([]string, len(tl.emotions))
	for i, e := range tl.emotions {
		names[i] = e.Name
	}
	return names
}

// Emotion looks up a modifier by name. "neutral" and anything else not in
// the table report ok=false, which means no modification.
func (tl *TemplateLibrary) Emotion(name string) (EmotionModifier, bool) {
	for _, e := range tl.emotions {
		if e.Name == name {
			return e, true
		}
	}
	return EmotionModifier{}, false
}

func builtinEmotions() []EmotionModifier {
	return []EmotionModifier{
		{Name: "happy", BaseExpression: "happy", BlinkRate: 0.3, Speed: 1.2, Bounce: 1.3, Energy: 1.3},
		{Name: "sad", BaseExpression: "sad", BlinkRate: 0.1, Speed: 0.7, Bounce: 0.5, Energy: 0.6},
		{Name: "angry", BaseExpression: "angry", BlinkRate: 0.1, Speed: 1.3, Bounce: 0.8, Energy: 1.5},
		{Name: "scared", BaseExpression: "scared", BlinkRate: 0.4, Speed: 1.4, Bounce: 0.7, Energy: 1.1},
		{Name: "excited", BaseExpression: "excited", BlinkRate: 0.2, Speed: 1.5, Bounce: 1.5, Energy: 1.8},
	}
}

func builtinTemplates() []*Animation {
	return []*Animation{
		{
			Name:     "wave",
			Duration: 2.0,
			Tracks: map[string]Track{
				"arm_right": {
					kfRotXY(0.0, 0, 0, 0),
					kfRotXY(0.5, 45, 10, -20),
					kfRotXY(1.0, -15, 15, -15),
					kfRotXY(1.5, 45, 10, -20),
					kfRotXY(2.0, 0, 0, 0),
				},
				"hand_right": {
					kfRot(0.0, 0),
					kfRot(0.5, 15),
					kfRot(1.0, -10),
					kfRot(1.5, 15),
					kfRot(2.0, 0),
				},
				"face": {
					kfFace(0.0, "neutral"),
					kfFace(2.0, "neutral"),
				},
			},
		},
		{
			Name:     "jump",
			Duration: 1.5,
			Tracks: map[string]Track{
				"root": {
					kfY(0.0, 0),
					kfY(0.7, 100),
					kfY(1.5, 0),
				},
				"leg_left": {
					kfRot(0.0, 0),
					kfRot(0.3, -15),
					kfRot(0.7, 10),
					kfRot(1.2, -20),
					kfRot(1.5, 0),
				},
				"leg_right": {
					kfRot(0.0, 0),
					kfRot(0.3, -15),
					kfRot(0.7, 10),
					kfRot(1.2, -20),
					kfRot(1.5, 0),
				},
				"face": {
					kfFace(0.0, "neutral"),
					kfFace(0.7, "excited"),
					kfFace(1.5, "neutral"),
				},
			},
		},
		{
			Name:     "walk",
			Duration: 1.2,
			Tracks: map[string]Track{
				"root": {
					kfX(0.0, 0),
					kfX(1.2, 50),
				},
				"leg_left": {
					kfRot(0.0, 0),
					kfRot(0.3, 20),
					kfRot(0.6, 0),
					kfRot(0.9, -20),
					kfRot(1.2, 0),
				},
				"leg_right": {
					kfRot(0.0, -20),
					kfRot(0.3, 0),
					kfRot(0.6, 20),
					kfRot(0.9, 0),
					kfRot(1.2, -20),
				},
				"arm_left": {
					kfRot(0.0, -10),
					kfRot(0.6, 10),
					kfRot(1.2, -10),
				},
				"arm_right": {
					kfRot(0.0, 10),
					kfRot(0.6, -10),
					kfRot(1.2, 10),
				},
				"face": {
					kfFace(0.0, "neutral"),
					kfFace(1.2, "neutral"),
				},
			},
		},
		{
			Name:     "run",
			Duration: 0.8,
			Tracks: map[string]Track{
				"root": {
					kfXY(0.0, 0, 0),
					kfXY(0.2, 15, 10),
					kfXY(0.4, 30, 0),
					kfXY(0.6, 45, 10),
					kfXY(0.8, 60, 0),
				},
				"leg_left": {
					kfRot(0.0, -30),
					kfRot(0.2, 0),
					kfRot(0.4, 30),
					kfRot(0.6, 0),
					kfRot(0.8, -30),
				},
				"leg_right": {
					kfRot(0.0, 30),
					kfRot(0.2, 0),
					kfRot(0.4, -30),
					kfRot(0.6, 0),
					kfRot(0.8, 30),
				},
				"arm_left": {
					kfRot(0.0, 30),
					kfRot(0.4, -30),
					kfRot(0.8, 30),
				},
				"arm_right": {
					kfRot(0.0, -30),
					kfRot(0.4, 30),
					kfRot(0.8, -30),
				},
				"face": {
					kfFace(0.0, "determined"),
					kfFace(0.8, "determined"),
				},
			},
		},
		{
			Name:     "idle",
			Duration: 4.0,
			Tracks: map[string]Track{
				"root": {
					kfY(0.0, 0),
					kfY(2.0, -3),
					kfY(4.0, 0),
				},
				"body": {
					kfRot(0.0, 0),
					kfRot(2.0, 2),
					kfRot(4.0, 0),
				},
				"head": {
					kfRot(0.0, 0),
					kfRot(1.0, -1),
					kfRot(3.0, 1),
					kfRot(4.0, 0),
				},
				"face": {
					kfFace(0.0, "neutral"),
					kfFace(1.5, "blink"),
					kfFace(1.7, "neutral"),
					kfFace(4.0, "neutral"),
				},
			},
		},
	}
}

// LoadLuaTemplates executes a Lua file that declares extra motion templates
// via template{...} calls and appends them to the library. Built-in names can
// be overridden; new names extend the keyword-match order.
func (tl *TemplateLibrary) LoadLuaTemplates(path string) error {
	l := lua.NewState()
	defer l.Close()

	l.Register("template", func(l *lua.LState) int {
		t := l.ToTable(1)
		if t == nil {
			l.RaiseError("template expects a table argument")
			return 0
		}
		a, err := animFromLuaTable(t)
		if err != nil {
			l.RaiseError("%v", err)
			return 0
		}
		tl.add(a)
		return 0
	})

	if err := l.DoFile(path); err != nil {
		return fmt.Errorf("template script %v: %w", path, err)
	}
	return nil
}

func animFromLuaTable(t *lua.LTable) (*Animation, error) {
	a := &Animation{Tracks: make(map[string]Track)}
	if s, ok := t.RawGetString("name").(lua.LString); ok {
		a.Name = string(s)
	}
	if n, ok := t.RawGetString("duration").(lua.LNumber); ok {
		a.Duration = float64(n)
	}
	if a.Name == "" || a.Duration <= 0 {
		return nil, Error("template requires a name and a positive duration")
	}

	kfs, ok := t.RawGetString("keyframes").(*lua.LTable)
	if !ok {
		return nil, Error("template " + a.Name + " has no keyframes table")
	}
	var convErr error
	kfs.ForEach(func(key, value lua.LValue) {
		trackName, ok1 := key.(lua.LString)
		trackTbl, ok2 := value.(*lua.LTable)
		if !ok1 || !ok2 {
			convErr = Error("template " + a.Name + ": keyframes must map track names to tables")
			return
		}
		var track Track
		trackTbl.ForEach(func(_, kv lua.LValue) {
			kt, ok := kv.(*lua.LTable)
			if !ok {
				convErr = Error("template " + a.Name + ": keyframe entries must be tables")
				return
			}
			track = append(track, keyframeFromLuaTable(kt))
		})
		a.Tracks[string(trackName)] = track
	})
	if convErr != nil {
		return nil, convErr
	}
	return a, nil
}

func keyframeFromLuaTable(t *lua.LTable) Keyframe {
	var kf Keyframe
	if n, ok := t.RawGetString("time").(lua.LNumber); ok {
		kf.Time = float64(n)
	}
	if n, ok := t.RawGetString("rotation").(lua.LNumber); ok {
		kf.Rotation = fptr(float64(n))
	}
	if n, ok := t.RawGetString("x").(lua.LNumber); ok {
		kf.X = fptr(float64(n))
	}
	if n, ok := t.RawGetString("y").(lua.LNumber); ok {
		kf.Y = fptr(float64(n))
	}
	if s, ok := t.RawGetString("expression").(lua.LString); ok {
		kf.Expression = string(s)
	}
	return kf
}
