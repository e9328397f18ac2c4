package model

// Rect is an integer rectangle in display coordinates.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// FRect is a floating point rectangle in buffer coordinates.
type FRect struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
}

// Region is a set of rectangles. An empty region means "whole layer".
type Region []Rect

// Color is an RGBA color.
type Color struct {
	R, G, B, A uint8
}

// BufferRef is an opaque reference to a client buffer.
type BufferRef uint64

// Buffer is the buffer currently attached to a layer.
type Buffer struct {
	Ref          BufferRef
	AcquireFence int32 // -1 when already signalled
}

// Layer holds the composition attributes of one surface.
// Layers are owned by exactly one display.
type Layer struct {
	ID              LayerHandle
	CompositionType CompositionType
	BlendMode       BlendMode
	Buffer          *Buffer
	Dataspace       int32
	DisplayFrame    Rect
	SourceCrop      FRect
	ZOrder          uint32
	SurfaceDamage   Region
	VisibleRegion   Region
	PlaneAlpha      float32
	Transform       Transform
}

// NewLayer returns a layer with the defaults a freshly created layer has.
func NewLayer(id LayerHandle) Layer {
	return Layer{
		ID:              id,
		CompositionType: CompositionInvalid,
		BlendMode:       BlendModeNone,
		PlaneAlpha:      1.0,
	}
}

// Clone returns a deep copy so callers cannot mutate owned state.
func (l Layer) Clone() Layer {
	if l.Buffer != nil {
		b := *l.Buffer
		l.Buffer = &b
	}
	l.SurfaceDamage = append(Region(nil), l.SurfaceDamage...)
	l.VisibleRegion = append(Region(nil), l.VisibleRegion...)
	return l
}
