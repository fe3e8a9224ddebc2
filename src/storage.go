package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Metadata documents. These are durable, versioned shapes: they are written
// wholesale and re-read across process runs, so field names must stay
// stable.

type CharacterMetadata struct {
	CharacterID  string  `json:"character_id"`
	OriginalFile string  `json:"original_file"`
	Dimensions   Size    `json:"dimensions"`
	LayersCount  int     `json:"layers_count"`
	Layers       []Layer `json:"layers"`
	ImportedAt   string  `json:"imported_at"`
}

type AnimationMetadata struct {
	AnimationID   string  `json:"animation_id"`
	CharacterID   string  `json:"character_id"`
	Description   string  `json:"description"`
	AnimationType string  `json:"animation_type"`
	Emotion       string  `json:"emotion"`
	Intensity     float64 `json:"intensity"`
	Duration      float64 `json:"duration"`
	CreatedAt     string  `json:"created_at"`
}

type RigMetadata struct {
	RigID       string `json:"rig_id"`
	CharacterID string `json:"character_id"`
	BoneCount   int    `json:"bone_count"`
	IKCount     int    `json:"ik_count"`
	CreatedAt   string `json:"created_at"`
}

type ExportMetadata struct {
	ExportID    string `json:"export_id"`
	CharacterID string `json:"character_id"`
	AnimationID string `json:"animation_id"`
	Format      string `json:"format"`
	CreatedAt   string `json:"created_at"`
}

// Storage owns the on-disk document layout:
//
//	<root>/characters/<id>/metadata.json + layer images
//	<root>/animations/<id>/metadata.json + animation.json
//	<root>/rigs/<id>/metadata.json + spine_project.json
//	<root>/exports/<id>/metadata.json + export artifact
//
// All writes are wholesale; there are no partial or append-in-place writes
// beyond the exporter's read-merge-write of a rig project.
type Storage struct {
	root          string
	charactersDir string
	animationsDir string
	rigsDir       string
	exportsDir    string
	logger        *log.Logger
}

func newStorage(root string, logger *log.Logger) (*Storage, error) {
	s := &Storage{
		root:          root,
		charactersDir: filepath.Join(root, "characters"),
		animationsDir: filepath.Join(root, "animations"),
		rigsDir:       filepath.Join(root, "rigs"),
		exportsDir:    filepath.Join(root, "exports"),
		logger:        logger,
	}
	for _, dir := range []string{s.root, s.charactersDir, s.animationsDir, s.rigsDir, s.exportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Characters

func (s *Storage) CharacterDir(characterID string) string {
	return filepath.Join(s.charactersDir, characterID)
}

func (s *Storage) NewCharacterDir(characterID string) (string, error) {
	dir := s.CharacterDir(characterID)
	return dir, os.MkdirAll(dir, 0o755)
}

func (s *Storage) SaveCharacterMetadata(meta *CharacterMetadata) error {
	return writeJSON(filepath.Join(s.CharacterDir(meta.CharacterID), "metadata.json"), meta)
}

func (s *Storage) CharacterMetadata(characterID string) (*CharacterMetadata, error) {
	var meta CharacterMetadata
	path := filepath.Join(s.CharacterDir(characterID), "metadata.json")
	if err := readJSON(path, &meta); err != nil {
		return nil, errNotFound("Character not found: " + characterID)
	}
	return &meta, nil
}

type CharacterSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Dimensions  Size   `json:"dimensions"`
	LayersCount int    `json:"layers_count"`
	ImportedAt  string `json:"imported_at"`
}

func (s *Storage) ListCharacters() []CharacterSummary {
	out := []CharacterSummary{}
	for _, id := range s.listDirs(s.charactersDir) {
		meta, err := s.CharacterMetadata(id)
		if err != nil {
			s.logger.Printf("Warning: failed to read metadata for %v: %v", id, err)
			continue
		}
		name := meta.OriginalFile
		if name == "" {
			name = "Unknown"
		} else if ext := filepath.Ext(name); ext != "" {
			name = name[:len(name)-len(ext)]
		}
		out = append(out, CharacterSummary{
			ID:          meta.CharacterID,
			Name:        name,
			Dimensions:  meta.Dimensions,
			LayersCount: meta.LayersCount,
			ImportedAt:  meta.ImportedAt,
		})
	}
	return out
}

// Animations

func (s *Storage) animationDir(animationID string) string {
	return filepath.Join(s.animationsDir, animationID)
}

func (s *Storage) SaveAnimation(a *Animation, meta *AnimationMetadata) error {
	dir := s.animationDir(meta.AnimationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "animation.json"), a)
}

func (s *Storage) AnimationMetadata(animationID string) (*AnimationMetadata, error) {
	var meta AnimationMetadata
	path := filepath.Join(s.animationDir(animationID), "metadata.json")
	if err := readJSON(path, &meta); err != nil {
		return nil, errNotFound("Animation not found: " + animationID)
	}
	return &meta, nil
}

func (s *Storage) AnimationData(animationID string) (*Animation, error) {
	var a Animation
	path := filepath.Join(s.animationDir(animationID), "animation.json")
	if err := readJSON(path, &a); err != nil {
		return nil, errNotFound("Animation not found: " + animationID)
	}
	return &a, nil
}

type AnimationSummary struct {
	ID            string  `json:"id"`
	CharacterID   string  `json:"character_id"`
	Description   string  `json:"description"`
	AnimationType string  `json:"animation_type"`
	Emotion       string  `json:"emotion"`
	Duration      float64 `json:"duration"`
	CreatedAt     string  `json:"created_at"`
}

// ListAnimations lists stored animations, optionally filtered by character.
// Unreadable entries are skipped with a warning.
func (s *Storage) ListAnimations(characterID string) []AnimationSummary {
	out := []AnimationSummary{}
	for _, id := range s.listDirs(s.animationsDir) {
		meta, err := s.AnimationMetadata(id)
		if err != nil {
			s.logger.Printf("Warning: failed to read metadata for %v: %v", id, err)
			continue
		}
		if characterID != "" && meta.CharacterID != characterID {
			continue
		}
		out = append(out, AnimationSummary{
			ID:            meta.AnimationID,
			CharacterID:   meta.CharacterID,
			Description:   meta.Description,
			AnimationType: meta.AnimationType,
			Emotion:       meta.Emotion,
			Duration:      meta.Duration,
			CreatedAt:     meta.CreatedAt,
		})
	}
	return out
}

// Rigs

func (s *Storage) rigDir(rigID string) string {
	return filepath.Join(s.rigsDir, rigID)
}

func (s *Storage) SaveRig(project *SpineProject, meta *RigMetadata) error {
	dir := s.rigDir(meta.RigID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "spine_project.json"), project)
}

func (s *Storage) RigMetadata(rigID string) (*RigMetadata, error) {
	var meta RigMetadata
	if err := readJSON(filepath.Join(s.rigDir(rigID), "metadata.json"), &meta); err != nil {
		return nil, errNotFound("Rig not found: " + rigID)
	}
	return &meta, nil
}

// RigProject returns the raw bytes of a rig's skeleton document, for
// byte-level merging.
func (s *Storage) RigProject(rigID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.rigDir(rigID), "spine_project.json"))
	if err != nil {
		return nil, errNotFound("Rig not found: " + rigID)
	}
	return data, nil
}

func (s *Storage) SaveRigProject(rigID string, data []byte) error {
	return os.WriteFile(filepath.Join(s.rigDir(rigID), "spine_project.json"), data, 0o644)
}

// FindRigForCharacter scans rig metadata for one owned by the character.
func (s *Storage) FindRigForCharacter(characterID string) (string, error) {
	for _, id := range s.listDirs(s.rigsDir) {
		meta, err := s.RigMetadata(id)
		if err != nil {
			s.logger.Printf("Warning: failed to read metadata for %v: %v", id, err)
			continue
		}
		if meta.CharacterID == characterID {
			return id, nil
		}
	}
	return "", errNotFound("No rig found for character: " + characterID)
}

// Exports

func (s *Storage) NewExportDir(exportID string) (string, error) {
	dir := filepath.Join(s.exportsDir, exportID)
	return dir, os.MkdirAll(dir, 0o755)
}

func (s *Storage) SaveExportMetadata(dir string, meta ExportMetadata) error {
	return writeJSON(filepath.Join(dir, "metadata.json"), meta)
}

type ExportSummary struct {
	ID          string `json:"id"`
	CharacterID string `json:"character_id"`
	AnimationID string `json:"animation_id"`
	Format      string `json:"format"`
	CreatedAt   string `json:"created_at"`
}

func (s *Storage) ListExports(characterID string) []ExportSummary {
	out := []ExportSummary{}
	for _, id := range s.listDirs(s.exportsDir) {
		var meta ExportMetadata
		if err := readJSON(filepath.Join(s.exportsDir, id, "metadata.json"), &meta); err != nil {
			s.logger.Printf("Warning: failed to read metadata for %v: %v", id, err)
			continue
		}
		if characterID != "" && meta.CharacterID != characterID {
			continue
		}
		out = append(out, ExportSummary{
			ID:          meta.ExportID,
			CharacterID: meta.CharacterID,
			AnimationID: meta.AnimationID,
			Format:      meta.Format,
			CreatedAt:   meta.CreatedAt,
		})
	}
	return out
}

func (s *Storage) listDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}
