package main

import "log"

// RigResult summarizes a freshly built skeleton.
type RigResult struct {
	RigID     string
	BoneCount int
	IKCount   int
	Parts     []string
}

// Rigger turns imported character layers into a stored skeleton document.
type Rigger struct {
	storage *Storage
	logger  *log.Logger
}

func newRigger(storage *Storage, logger *log.Logger) *Rigger {
	return &Rigger{storage: storage, logger: logger}
}

func (r *Rigger) Rig(characterID string) (*RigResult, error) {
	meta, err := r.storage.CharacterMetadata(characterID)
	if err != nil {
		return nil, err
	}

	rig := InferStructure(meta.Layers)
	if len(rig.Parts) == 0 {
		r.logger.Printf("Warning: no body parts recognized in character %v", characterID)
	}
	project := BuildProject(rig, meta.Dimensions, characterID)

	rigID := newID("rig", characterID)
	if err := r.storage.SaveRig(project, &RigMetadata{
		RigID:       rigID,
		CharacterID: characterID,
		BoneCount:   len(project.Bones),
		IKCount:     len(project.IK),
		CreatedAt:   timestamp(),
	}); err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(rig.Parts))
	for _, part := range bodyParts {
		if _, ok := rig.Parts[part.key]; ok {
			parts = append(parts, part.key)
		}
	}
	return &RigResult{
		RigID:     rigID,
		BoneCount: len(project.Bones),
		IKCount:   len(project.IK),
		Parts:     parts,
	}, nil
}

// GenerateResult summarizes a stored animation.
type GenerateResult struct {
	AnimationID   string
	AnimationType string
	Emotion       string
	Intensity     float64
	Duration      float64
}

// Generator runs the request-to-animation pipeline and persists the result.
type Generator struct {
	storage     *Storage
	interpreter Interpreter
	synth       *Synthesizer
}

func newGenerator(storage *Storage, interpreter Interpreter, synth *Synthesizer) *Generator {
	return &Generator{storage: storage, interpreter: interpreter, synth: synth}
}

func (g *Generator) Generate(characterID, description string) (*GenerateResult, error) {
	if _, err := g.storage.CharacterMetadata(characterID); err != nil {
		return nil, err
	}

	motion, emotion, intensity := g.interpreter.Interpret(description)
	anim := g.synth.Synthesize(motion, emotion, intensity, description)

	animationID := newID("anim", motion)
	if err := g.storage.SaveAnimation(anim, &AnimationMetadata{
		AnimationID:   animationID,
		CharacterID:   characterID,
		Description:   description,
		AnimationType: motion,
		Emotion:       emotion,
		Intensity:     intensity,
		Duration:      anim.Duration,
		CreatedAt:     timestamp(),
	}); err != nil {
		return nil, err
	}

	return &GenerateResult{
		AnimationID:   animationID,
		AnimationType: motion,
		Emotion:       emotion,
		Intensity:     intensity,
		Duration:      anim.Duration,
	}, nil
}
