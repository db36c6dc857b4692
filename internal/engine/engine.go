// Package engine is the handle-based boundary over the photometric packages.
//
// Callers parse a file into an Arena and get back an opaque Handle. Every
// per-model operation takes that handle; the model itself never leaves the
// arena except through Luminaire, which returns the shared read-only value.
// Release drops the arena's reference, after which the handle is invalid.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/photometric/internal/diagram"
	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/photometry"
	"github.com/banshee-data/photometric/internal/validate"
)

var (
	// ErrInvalidHandle is returned for handles the arena never issued or has
	// already released.
	ErrInvalidHandle = errors.New("invalid luminaire handle")
	// ErrNoModelLoaded is returned when an operation is called with the zero
	// handle, i.e. before any successful parse.
	ErrNoModelLoaded = errors.New("no luminaire model loaded")
	// ErrUnknownFormat is returned by DetectFormat for empty input with no
	// telling file extension.
	ErrUnknownFormat = errors.New("unknown photometric format")
)

// Handle identifies a model held by an Arena. The zero Handle never refers
// to a model.
type Handle uuid.UUID

// ParseHandle parses the string form produced by Handle.String.
func ParseHandle(s string) (Handle, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, fmt.Errorf("parse handle: %w", err)
	}
	return Handle(id), nil
}

func (h Handle) String() string { return uuid.UUID(h).String() }

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return uuid.UUID(h) == uuid.Nil }

type entry struct {
	lum    *photometry.Luminaire
	format string
	name   string
}

// Arena owns parsed models. It is safe for concurrent use.
type Arena struct {
	mu     sync.RWMutex
	models map[Handle]entry
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{models: make(map[Handle]entry)}
}

// ParseLDT parses EULUMDAT text and stores the model.
func (a *Arena) ParseLDT(text string) (Handle, error) {
	return a.parse("", eulumdat.Format, text)
}

// ParseIES parses IES LM-63 text and stores the model.
func (a *Arena) ParseIES(text string) (Handle, error) {
	return a.parse("", ies.Format, text)
}

// Parse detects the format from name and text and stores the model. The name
// is kept for Info and may be empty.
func (a *Arena) Parse(name, text string) (Handle, error) {
	format, err := DetectFormat(name, text)
	if err != nil {
		return Handle{}, err
	}
	return a.parse(name, format, text)
}

func (a *Arena) parse(name, format, text string) (Handle, error) {
	var (
		l   *photometry.Luminaire
		err error
	)
	switch format {
	case eulumdat.Format:
		l, err = eulumdat.Parse(text)
	case ies.Format:
		l, err = ies.Parse(text)
	default:
		return Handle{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Handle{}, err
	}
	return a.add(l, format, name), nil
}

// Adopt stores an already built model, for instance one loaded from a
// catalog, and returns its handle.
func (a *Arena) Adopt(l *photometry.Luminaire, format, name string) (Handle, error) {
	if l == nil {
		return Handle{}, ErrNoModelLoaded
	}
	return a.add(l, format, name), nil
}

func (a *Arena) add(l *photometry.Luminaire, format, name string) Handle {
	h := Handle(uuid.New())
	a.mu.Lock()
	defer a.mu.Unlock()
	a.models[h] = entry{lum: l, format: format, name: name}
	return h
}

// Release forgets the model behind h. Releasing twice fails with
// ErrInvalidHandle.
func (a *Arena) Release(h Handle) error {
	if h.IsZero() {
		return ErrNoModelLoaded
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.models[h]; !ok {
		return ErrInvalidHandle
	}
	delete(a.models, h)
	return nil
}

// Len returns the number of live models.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.models)
}

func (a *Arena) get(h Handle) (entry, error) {
	if h.IsZero() {
		return entry{}, ErrNoModelLoaded
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.models[h]
	if !ok {
		return entry{}, ErrInvalidHandle
	}
	return e, nil
}

// Luminaire returns the model behind h. The model is immutable and may be
// shared freely.
func (a *Arena) Luminaire(h Handle) (*photometry.Luminaire, error) {
	e, err := a.get(h)
	if err != nil {
		return nil, err
	}
	return e.lum, nil
}

// DetectFormat decides between LDT and IES. A known file extension wins;
// otherwise IES is recognised by its IESNA header or TILT= line and
// everything else is treated as LDT, which has no magic line.
func DetectFormat(name, text string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ldt", ".eul":
		return eulumdat.Format, nil
	case ".ies":
		return ies.Format, nil
	}
	trimmed := strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if trimmed == "" {
		return "", ErrUnknownFormat
	}
	if strings.HasPrefix(strings.ToUpper(trimmed), "IESNA") {
		return ies.Format, nil
	}
	for _, line := range strings.SplitN(trimmed, "\n", 64) {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "TILT=") {
			return ies.Format, nil
		}
	}
	return eulumdat.Format, nil
}

// SymmetryName forwards to photometry.SymmetryName.
func SymmetryName(ordinal int) string { return photometry.SymmetryName(ordinal) }

// TypeIndicatorName forwards to photometry.TypeIndicatorName.
func TypeIndicatorName(ordinal int) string { return photometry.TypeIndicatorName(ordinal) }

// LuminaireInfo is the snapshot returned by Info.
type LuminaireInfo struct {
	photometry.Info
	Handle            string `json:"handle"`
	Format            string `json:"format"`
	SourceName        string `json:"source_name,omitempty"`
	SymmetryName      string `json:"symmetry_name"`
	TypeIndicatorName string `json:"type_indicator_name"`
}

// Info returns the header fields and derived scalars of the model behind h.
func (a *Arena) Info(h Handle) (LuminaireInfo, error) {
	e, err := a.get(h)
	if err != nil {
		return LuminaireInfo{}, err
	}
	info := e.lum.Info()
	return LuminaireInfo{
		Info:              info,
		Handle:            h.String(),
		Format:            e.format,
		SourceName:        e.name,
		SymmetryName:      photometry.SymmetryName(info.Symmetry),
		TypeIndicatorName: photometry.TypeIndicatorName(info.TypeIndicator),
	}, nil
}

// LampSetInfo is one lamp set with its position in the file.
type LampSetInfo struct {
	Index int `json:"index"`
	photometry.LampSet
}

// LampSets returns the lamp sets of the model behind h in file order.
func (a *Arena) LampSets(h Handle) ([]LampSetInfo, error) {
	e, err := a.get(h)
	if err != nil {
		return nil, err
	}
	sets := e.lum.LampSets()
	out := make([]LampSetInfo, len(sets))
	for i, ls := range sets {
		out[i] = LampSetInfo{Index: i, LampSet: ls}
	}
	return out, nil
}

// ExportLDT writes the model behind h as EULUMDAT text.
func (a *Arena) ExportLDT(h Handle) (string, error) {
	e, err := a.get(h)
	if err != nil {
		return "", err
	}
	return eulumdat.Export(e.lum), nil
}

// ExportIES writes the model behind h as IES LM-63-2002 text.
func (a *Arena) ExportIES(h Handle) (string, error) {
	e, err := a.get(h)
	if err != nil {
		return "", err
	}
	return ies.Export(e.lum), nil
}

// Validate runs the validator with default options.
func (a *Arena) Validate(h Handle) ([]validate.Warning, error) {
	return a.ValidateWith(h, validate.DefaultOptions())
}

// ValidateWith runs the validator with opts.
func (a *Arena) ValidateWith(h Handle, opts validate.Options) ([]validate.Warning, error) {
	e, err := a.get(h)
	if err != nil {
		return nil, err
	}
	return validate.Validate(e.lum, opts), nil
}

// SampleIntensity returns the interpolated intensity at (c, g) in degrees.
func (a *Arena) SampleIntensity(h Handle, c, g float64) (float64, error) {
	e, err := a.get(h)
	if err != nil {
		return 0, err
	}
	return e.lum.Sample(c, g), nil
}

// SampleIntensityNormalized returns SampleIntensity divided by the peak.
func (a *Arena) SampleIntensityNormalized(h Handle, c, g float64) (float64, error) {
	e, err := a.get(h)
	if err != nil {
		return 0, err
	}
	return e.lum.SampleNormalized(c, g), nil
}

// PolarSVG renders the polar diagram of the model behind h.
func (a *Arena) PolarSVG(h Handle, width, height int, theme diagram.Theme) (string, error) {
	e, err := a.get(h)
	if err != nil {
		return "", err
	}
	return diagram.Polar(e.lum, width, height, theme), nil
}

// CartesianSVG renders the Cartesian diagram. maxCurves <= 0 means
// diagram.DefaultMaxCurves.
func (a *Arena) CartesianSVG(h Handle, width, height int, theme diagram.Theme, maxCurves int) (string, error) {
	e, err := a.get(h)
	if err != nil {
		return "", err
	}
	return diagram.Cartesian(e.lum, width, height, theme, maxCurves), nil
}

// ButterflySVG renders the butterfly diagram tilted by tiltDegrees.
func (a *Arena) ButterflySVG(h Handle, width, height int, theme diagram.Theme, tiltDegrees float64) (string, error) {
	e, err := a.get(h)
	if err != nil {
		return "", err
	}
	return diagram.Butterfly(e.lum, width, height, theme, tiltDegrees), nil
}

// HeatmapSVG renders the C/gamma heatmap.
func (a *Arena) HeatmapSVG(h Handle, width, height int, theme diagram.Theme) (string, error) {
	e, err := a.get(h)
	if err != nil {
		return "", err
	}
	return diagram.Heatmap(e.lum, width, height, theme), nil
}
