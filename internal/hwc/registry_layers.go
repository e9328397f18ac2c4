package hwc

import (
	"github.com/jmylchreest/fbhwc/internal/model"
)

// CreateLayer creates a layer on dpy. Layer handles are unique across all
// displays until Reset.
func (r *Registry) CreateLayer(dpy model.DisplayHandle) (model.LayerHandle, error) {
	var id model.LayerHandle
	err := r.withDisplay(dpy, func(d *display) error {
		id = d.createLayer(r.allocLayerLocked())
		return nil
	})
	return id, err
}

// DestroyLayer removes a layer from dpy.
func (r *Registry) DestroyLayer(dpy model.DisplayHandle, lyr model.LayerHandle) error {
	return r.withDisplay(dpy, func(d *display) error {
		return d.destroyLayer(lyr)
	})
}

// GetLayer returns a copy of a layer's attributes.
func (r *Registry) GetLayer(dpy model.DisplayHandle, lyr model.LayerHandle) (model.Layer, error) {
	var out model.Layer
	err := r.withLayer(dpy, lyr, func(l *model.Layer) error {
		out = l.Clone()
		return nil
	})
	return out, err
}

// withLayer resolves the display before the layer so a bad display is
// never reported as a bad layer.
func (r *Registry) withLayer(dpy model.DisplayHandle, lyr model.LayerHandle, fn func(l *model.Layer) error) error {
	return r.withDisplay(dpy, func(d *display) error {
		l, err := d.layer(lyr)
		if err != nil {
			return err
		}
		return fn(l)
	})
}

// SetLayerCompositionType sets how the layer is composed.
func (r *Registry) SetLayerCompositionType(dpy model.DisplayHandle, lyr model.LayerHandle, t model.CompositionType) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		return setCompositionType(l, t)
	})
}

// SetLayerBlendMode sets the layer's blend mode.
func (r *Registry) SetLayerBlendMode(dpy model.DisplayHandle, lyr model.LayerHandle, b model.BlendMode) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		return setBlendMode(l, b)
	})
}

// SetLayerBuffer attaches a buffer and its acquire fence.
func (r *Registry) SetLayerBuffer(dpy model.DisplayHandle, lyr model.LayerHandle, ref model.BufferRef, acquireFence int32) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.Buffer = &model.Buffer{Ref: ref, AcquireFence: acquireFence}
		return nil
	})
}

// SetLayerDataspace sets the dataspace of the layer's buffer.
func (r *Registry) SetLayerDataspace(dpy model.DisplayHandle, lyr model.LayerHandle, dataspace int32) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.Dataspace = dataspace
		return nil
	})
}

// SetLayerDisplayFrame sets where the layer lands on the display.
func (r *Registry) SetLayerDisplayFrame(dpy model.DisplayHandle, lyr model.LayerHandle, frame model.Rect) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.DisplayFrame = frame
		return nil
	})
}

// SetLayerSourceCrop sets the part of the buffer that is shown.
func (r *Registry) SetLayerSourceCrop(dpy model.DisplayHandle, lyr model.LayerHandle, crop model.FRect) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.SourceCrop = crop
		return nil
	})
}

// SetLayerZOrder sets the stacking position; higher is nearer the viewer.
func (r *Registry) SetLayerZOrder(dpy model.DisplayHandle, lyr model.LayerHandle, z uint32) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.ZOrder = z
		return nil
	})
}

// SetLayerSurfaceDamage replaces the region changed since the last frame.
func (r *Registry) SetLayerSurfaceDamage(dpy model.DisplayHandle, lyr model.LayerHandle, damage model.Region) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.SurfaceDamage = append(model.Region(nil), damage...)
		return nil
	})
}

// SetLayerVisibleRegion replaces the region of the layer left uncovered.
func (r *Registry) SetLayerVisibleRegion(dpy model.DisplayHandle, lyr model.LayerHandle, visible model.Region) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		l.VisibleRegion = append(model.Region(nil), visible...)
		return nil
	})
}

// SetLayerPlaneAlpha sets the layer opacity in [0, 1].
func (r *Registry) SetLayerPlaneAlpha(dpy model.DisplayHandle, lyr model.LayerHandle, alpha float32) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		return setPlaneAlpha(l, alpha)
	})
}

// SetLayerTransform sets the flip and rotation applied to the buffer.
// Unknown transforms are BadParameter.
func (r *Registry) SetLayerTransform(dpy model.DisplayHandle, lyr model.LayerHandle, t model.Transform) error {
	return r.withLayer(dpy, lyr, func(l *model.Layer) error {
		return setTransform(l, t)
	})
}

// SetLayerColor is accepted and ignored. Solid-color layers are composed
// by the client.
func (r *Registry) SetLayerColor(dpy model.DisplayHandle, lyr model.LayerHandle, _ model.Color) error {
	return r.withLayer(dpy, lyr, func(*model.Layer) error { return nil })
}

// SetCursorPosition is accepted and ignored.
func (r *Registry) SetCursorPosition(dpy model.DisplayHandle, lyr model.LayerHandle, _, _ int32) error {
	return r.withLayer(dpy, lyr, func(*model.Layer) error { return nil })
}
