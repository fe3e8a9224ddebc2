package main

import (
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oov/psd"
)

// ImportResult summarizes a successful PSD import.
type ImportResult struct {
	CharacterID string
	Dimensions  Size
	LayersCount int
}

// PSDImporter decodes a .psd file into the layer tree and stores the
// character: per-layer PNG images plus metadata.json. This is the import
// boundary; nothing downstream touches PSD data again.
type PSDImporter struct {
	storage *Storage
	logger  *log.Logger
}

func newPSDImporter(storage *Storage, logger *log.Logger) *PSDImporter {
	return &PSDImporter{storage: storage, logger: logger}
}

func (p *PSDImporter) Import(path string) (*ImportResult, error) {
	if FileExist(path) == "" {
		return nil, errNotFound("PSD file not found: " + path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".psd") {
		return nil, errInvalidInput("File is not a PSD: " + path)
	}

	base := filepath.Base(path)
	characterID := newID("char", strings.TrimSuffix(base, filepath.Ext(base)))
	dir, err := p.storage.NewCharacterDir(characterID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errInvalidInput("Cannot open PSD file: " + err.Error())
	}
	defer f.Close()

	doc, _, err := psd.Decode(f, &psd.DecodeOptions{SkipMergedImage: true})
	if err != nil {
		return nil, errInvalidInput("Cannot decode PSD file: " + err.Error())
	}

	canvas := Size{
		Width:  float64(doc.Config.Rect.Dx()),
		Height: float64(doc.Config.Rect.Dy()),
	}

	// Layer records are stored bottom-to-top; traversal order here is the
	// order structural inference will see.
	counter := 0
	layers := p.processLayers(doc.Layer, dir, "", &counter)

	meta := &CharacterMetadata{
		CharacterID:  characterID,
		OriginalFile: base,
		Dimensions:   canvas,
		LayersCount:  len(layers),
		Layers:       layers,
		ImportedAt:   timestamp(),
	}
	if err := p.storage.SaveCharacterMetadata(meta); err != nil {
		return nil, err
	}

	return &ImportResult{
		CharacterID: characterID,
		Dimensions:  canvas,
		LayersCount: len(layers),
	}, nil
}

func (p *PSDImporter) processLayers(src []psd.Layer, outDir, parentPath string, counter *int) []Layer {
	var out []Layer
	for i := range src {
		l := &src[i]
		if !l.Visible() {
			continue
		}

		id := fmt.Sprintf("layer_%d", *counter)
		*counter++
		path := l.Name
		if parentPath != "" {
			path = parentPath + "/" + l.Name
		}

		if l.Folder() {
			out = append(out, Layer{
				ID:       id,
				Name:     l.Name,
				Kind:     layerKindGroup,
				Path:     path,
				Visible:  true,
				Children: p.processLayers(l.Layer, outDir, path, counter),
			})
			continue
		}

		layer := Layer{
			ID:      id,
			Name:    l.Name,
			Kind:    layerKindPixel,
			Path:    path,
			Visible: true,
			Position: &Point{
				X: float64(l.Rect.Min.X),
				Y: float64(l.Rect.Min.Y),
			},
			Dimensions: &Size{
				Width:  float64(l.Rect.Dx()),
				Height: float64(l.Rect.Dy()),
			},
			Opacity:   float64(l.Opacity) / 255.0,
			BlendMode: fmt.Sprint(l.BlendMode),
		}
		if imagePath := p.saveLayerImage(l, outDir, id); imagePath != "" {
			layer.ImagePath = imagePath
		}
		out = append(out, layer)
	}
	return out
}

// saveLayerImage writes the layer's composited pixels as a PNG and returns
// the file name, or "" if the layer has no image data. Encoding failures are
// soft: the layer survives without an attachment.
func (p *PSDImporter) saveLayerImage(l *psd.Layer, outDir, layerID string) string {
	if !l.HasImage() || l.Rect.Empty() {
		return ""
	}
	name := layerID + ".png"
	f, err := os.Create(filepath.Join(outDir, name))
	if err != nil {
		p.logger.Printf("Warning: failed to save layer image: %v", err)
		return ""
	}
	defer f.Close()
	if err := png.Encode(f, l.Picker); err != nil {
		p.logger.Printf("Warning: failed to save layer image: %v", err)
		return ""
	}
	return name
}
