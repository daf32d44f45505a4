package drill

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/shotdrill/internal/model"
)

type drillFile struct {
	ID          string           `yaml:"id,omitempty"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Targets     []targetSpecFile `yaml:"targets"`
}

type targetSpecFile struct {
	Distance         float64 `yaml:"distance"`
	TargetType       string  `yaml:"targetType"`
	ShootingPosition string  `yaml:"shootingPosition"`
	Shots            int     `yaml:"shots,omitempty"`
	Size             string  `yaml:"size,omitempty"`
	SizeCm           float64 `yaml:"sizeCm,omitempty"`
}

// ReadDrillFile decodes and validates a YAML drill definition.
func ReadDrillFile(r io.Reader) (model.CustomDrill, error) {
	var f drillFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return model.CustomDrill{}, fmt.Errorf("failed to decode drill file: %w", err)
	}
	d := model.CustomDrill{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Targets:     make([]model.TargetSpec, 0, len(f.Targets)),
	}
	for _, t := range f.Targets {
		d.Targets = append(d.Targets, model.TargetSpec{
			Distance:         t.Distance,
			TargetType:       model.StorageTargetType(t.TargetType),
			ShootingPosition: model.ShootingPosition(t.ShootingPosition),
			Shots:            t.Shots,
			Size:             model.TargetSize(t.Size),
			SizeCm:           t.SizeCm,
		})
	}
	if err := ValidateDrill(d); err != nil {
		return model.CustomDrill{}, err
	}
	return d, nil
}

// WriteDrillFile encodes d as YAML.
func WriteDrillFile(w io.Writer, d model.CustomDrill) error {
	f := drillFile{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Targets:     make([]targetSpecFile, 0, len(d.Targets)),
	}
	for _, t := range d.Targets {
		f.Targets = append(f.Targets, targetSpecFile{
			Distance:         t.Distance,
			TargetType:       string(t.TargetType),
			ShootingPosition: string(t.ShootingPosition),
			Shots:            t.Shots,
			Size:             string(t.Size),
			SizeCm:           t.SizeCm,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode drill file: %w", err)
	}
	return enc.Close()
}
