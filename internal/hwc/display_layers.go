package hwc

import (
	"fmt"

	"github.com/jmylchreest/fbhwc/internal/model"
)

func (d *display) createLayer(id model.LayerHandle) model.LayerHandle {
	l := model.NewLayer(id)
	d.layers[id] = &l
	return id
}

func (d *display) destroyLayer(id model.LayerHandle) error {
	if _, ok := d.layers[id]; !ok {
		d.logger.Warn("bad layer handle", "lyr", uint64(id))
		return fmt.Errorf("dpy %d: lyr %d: %w", d.id, id, ErrBadLayer)
	}
	delete(d.layers, id)
	return nil
}

func (d *display) layer(id model.LayerHandle) (*model.Layer, error) {
	l, ok := d.layers[id]
	if !ok {
		d.logger.Warn("bad layer handle", "lyr", uint64(id))
		return nil, fmt.Errorf("dpy %d: lyr %d: %w", d.id, id, ErrBadLayer)
	}
	return l, nil
}

func setCompositionType(l *model.Layer, t model.CompositionType) error {
	switch t {
	case model.CompositionClient, model.CompositionDevice, model.CompositionSolidColor,
		model.CompositionCursor, model.CompositionSideband:
		l.CompositionType = t
		return nil
	default:
		return fmt.Errorf("lyr %d: composition type %d: %w", l.ID, t, ErrBadParameter)
	}
}

func setBlendMode(l *model.Layer, b model.BlendMode) error {
	switch b {
	case model.BlendModeNone, model.BlendModePremultiplied, model.BlendModeCoverage:
		l.BlendMode = b
		return nil
	default:
		return fmt.Errorf("lyr %d: blend mode %d: %w", l.ID, b, ErrBadParameter)
	}
}

func setPlaneAlpha(l *model.Layer, alpha float32) error {
	if alpha < 0 || alpha > 1 {
		return fmt.Errorf("lyr %d: plane alpha %v: %w", l.ID, alpha, ErrBadParameter)
	}
	l.PlaneAlpha = alpha
	return nil
}

func setTransform(l *model.Layer, t model.Transform) error {
	if !t.Valid() {
		return fmt.Errorf("lyr %d: transform %d: %w", l.ID, t, ErrBadParameter)
	}
	l.Transform = t
	return nil
}
