package main

// Keyframe is a single timed sample on a bone track. The attribute set is
// sparse: only the fields that were authored are present. Optional numeric
// fields are pointers so that an absent field and a zero field stay distinct
// through serialization.
type Keyframe struct {
	Time       float64  `json:"time"`
	Rotation   *float64 `json:"rotation,omitempty"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

func fptr(v float64) *float64 {
	return &v
}

func kfRot(time, rotation float64) Keyframe {
	return Keyframe{Time: time, Rotation: fptr(rotation)}
}

func kfX(time, x float64) Keyframe {
	return Keyframe{Time: time, X: fptr(x)}
}

func kfY(time, y float64) Keyframe {
	return Keyframe{Time: time, Y: fptr(y)}
}

func kfXY(time, x, y float64) Keyframe {
	return Keyframe{Time: time, X: fptr(x), Y: fptr(y)}
}

func kfRotXY(time, rotation, x, y float64) Keyframe {
	return Keyframe{Time: time, Rotation: fptr(rotation), X: fptr(x), Y: fptr(y)}
}

func kfFace(time float64, expression string) Keyframe {
	return Keyframe{Time: time, Expression: expression}
}

func (kf Keyframe) clone() Keyframe {
	c := Keyframe{Time: kf.Time, Expression: kf.Expression}
	if kf.Rotation != nil {
		c.Rotation = fptr(*kf.Rotation)
	}
	if kf.X != nil {
		c.X = fptr(*kf.X)
	}
	if kf.Y != nil {
		c.Y = fptr(*kf.Y)
	}
	return c
}

// Track is an ordered keyframe sequence for one named channel.
// Times are non-decreasing.
type Track []Keyframe

func (t Track) clone() Track {
	c := make(Track, len(t))
	for i, kf := range t {
		c[i] = kf.clone()
	}
	return c
}

// Particle describes an instantaneous effect annotation attached to an
// animation as a whole rather than to a track.
type Particle struct {
	Type     string  `json:"type"`
	Count    int     `json:"count"`
	Duration float64 `json:"duration"`
	Color    string  `json:"color"`
}

// Animation is the internal track-set representation, the unit the
// synthesizer produces and the exporter consumes. The JSON shape is the
// persisted animation.json document.
type Animation struct {
	Name      string           `json:"name,omitempty"`
	Duration  float64          `json:"duration"`
	Tracks    map[string]Track `json:"keyframes"`
	Particles []Particle       `json:"particles,omitempty"`
}

// clone returns a structural copy sharing no memory with the receiver, so
// that template data stays pristine no matter what the synthesizer does to
// the result.
func (a *Animation) clone() *Animation {
	c := &Animation{
		Name:     a.Name,
		Duration: a.Duration,
		Tracks:   make(map[string]Track, len(a.Tracks)),
	}
	for name, track := range a.Tracks {
		c.Tracks[name] = track.clone()
	}
	if a.Particles != nil {
		c.Particles = make([]Particle, len(a.Particles))
		copy(c.Particles, a.Particles)
	}
	return c
}
