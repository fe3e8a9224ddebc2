package main

import "strings"

// Particle keyword groups checked against the raw request text. Each group
// that matches contributes one descriptor; groups match independently.
type particleRule struct {
	keywords []string
	ptype    string
	count    int
	color    string
}

var particleRules = []particleRule{
	{[]string{"sparkle", "magic"}, "sparkle", 10, "#FFFF99"},
	{[]string{"fire"}, "fire", 20, "#FF5500"},
	{[]string{"water", "splash"}, "water", 15, "#66CCFF"},
}

// hairFollowDelay and hairFollowScale shape the derived hair track: a
// lagged, exaggerated copy of root motion. Kinematic approximation, not a
// simulated system.
const (
	hairFollowDelay = 0.1
	hairFollowScale = 1.2
)

// Synthesizer turns an interpreted request into a concrete animation by
// composing a library template with an emotion modifier and intensity.
type Synthesizer struct {
	lib *TemplateLibrary
}

func newSynthesizer(lib *TemplateLibrary) *Synthesizer {
	return &Synthesizer{lib: lib}
}

// Synthesize builds the animation for a parsed request. The raw request text
// is consulted only for particle keywords. The result shares no memory with
// the template library.
func (s *Synthesizer) Synthesize(motion, emotion string, intensity float64, text string) *Animation {
	a := s.lib.Motion(motion)
	if mod, ok := s.lib.Emotion(emotion); ok {
		applyEmotion(a, mod, intensity)
	}
	addHairFollow(a)
	addParticles(a, text)
	return a
}

// applyEmotion modulates the animation in place. Speed compresses the
// timeline (duration only; keyframe times are left as authored), energy
// scales movement amplitude, and neutral face expressions are rewritten to
// the emotion's base expression.
func applyEmotion(a *Animation, mod EmotionModifier, intensity float64) {
	speed := 1.0 + (mod.Speed-1.0)*intensity
	energy := 1.0 + (mod.Energy-1.0)*intensity

	if speed != 1.0 {
		a.Duration = a.Duration / speed
	}

	for name, track := range a.Tracks {
		if name == "face" {
			for i := range track {
				if track[i].Expression == "neutral" {
					track[i].Expression = mod.BaseExpression
				}
			}
			continue
		}
		for i := range track {
			kf := &track[i]
			if kf.Rotation != nil && *kf.Rotation != 0 {
				*kf.Rotation *= energy
			}
			if kf.X != nil && *kf.X != 0 {
				*kf.X *= energy
			}
			if kf.Y != nil && *kf.Y != 0 {
				*kf.Y *= energy
			}
		}
	}
}

// addHairFollow derives a hair track from root motion when the template has
// none: every root keyframe after the first is echoed with a small delay and
// exaggerated values.
func addHairFollow(a *Animation) {
	if _, ok := a.Tracks["hair"]; ok {
		return
	}
	root, ok := a.Tracks["root"]
	if !ok {
		return
	}

	var hair Track
	for i, kf := range root {
		if i == 0 {
			continue
		}
		t := kf.Time + hairFollowDelay
		if t > a.Duration {
			t = a.Duration
		}
		h := Keyframe{Time: t}
		if kf.X != nil {
			h.X = fptr(*kf.X * hairFollowScale)
		}
		if kf.Y != nil {
			h.Y = fptr(*kf.Y * hairFollowScale)
		}
		if kf.Rotation != nil {
			h.Rotation = fptr(*kf.Rotation * hairFollowScale)
		}
		hair = append(hair, h)
	}
	if len(hair) > 0 {
		a.Tracks["hair"] = hair
	}
}

func addParticles(a *Animation, text string) {
	for _, rule := range particleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				a.Particles = append(a.Particles, Particle{
					Type:     rule.ptype,
					Count:    rule.count,
					Duration: a.Duration,
					Color:    rule.color,
				})
				break
			}
		}
	}
}
