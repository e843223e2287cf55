package vision

// PreprocessConfig holds the tunable parameters the Preprocessor needs on
// every tick, mirroring the "frame" and "mask" parameter blocks read from
// self.mem.params in the reference preprocess step.
type PreprocessConfig struct {
	CropRadius    float64
	Orange, Blue  HSVRange
	Yellow, Green HSVRange
	MaskField     bool
	RobotRadius   float64
}

// Preprocessor is the second pipeline stage: it consumes raw frames and
// publishes the orange, blue and yellow masks used by the ball and goal
// detectors. The green mask only feeds the optional field mask and is not
// published.
type Preprocessor struct {
	in   *Slot[Frame]
	out  *Slot[ColorMaskSet]
	cfg  func() PreprocessConfig
	loop *LoopTracker
}

// NewPreprocessor creates a Preprocessor reading from in and publishing to
// out. cfg is called once per tick so tuning changes take effect live,
// matching the reference implementation's direct reads from a shared
// mutable params dict.
func NewPreprocessor(in *Slot[Frame], out *Slot[ColorMaskSet], cfg func() PreprocessConfig, loop *LoopTracker) *Preprocessor {
	return &Preprocessor{in: in, out: out, cfg: cfg, loop: loop}
}

// Run waits for each new frame and publishes its derived mask set, until
// the input slot is closed.
func (p *Preprocessor) Run() {
	var lastGen uint64
	for {
		frame, gen, open := p.in.Wait(lastGen)
		if !open {
			Opsf("preprocess: input closed, stopping")
			p.out.Close()
			return
		}
		lastGen = gen

		if p.loop != nil {
			p.loop.StartIteration()
		}

		masks := p.Preprocess(frame)
		p.out.Set(masks)

		if p.loop != nil {
			p.loop.StopIteration()
		}
	}
}

// Preprocess runs the crop/orient/HSV/mask/field-mask pipeline on one
// frame, directly mirroring PreprocessFrameThread.preprocess.
func (p *Preprocessor) Preprocess(frame Frame) ColorMaskSet {
	cfg := p.cfg()

	cropped := CropCircle(frame, cfg.CropRadius)
	oriented := OrientFrame(cropped)
	hsv := ToHSV(oriented)
	w, h := oriented.Width, oriented.Height

	rawOrange := InRangeMask(hsv, w, h, cfg.Orange)
	rawBlue := InRangeMask(hsv, w, h, cfg.Blue)
	rawYellow := InRangeMask(hsv, w, h, cfg.Yellow)

	fieldMask := NewMask(w, h)
	fieldMask.Fill(true)

	if cfg.MaskField {
		rawGreen := InRangeMask(hsv, w, h, cfg.Green)
		fieldMask = FieldMask(rawGreen, rawYellow, rawBlue, rawOrange)
	}

	cx, cy := float64(w)/2, float64(h)/2
	ExcludeDisc(fieldMask, cx, cy, cfg.RobotRadius)

	return ColorMaskSet{
		Orange: rawOrange.And(fieldMask),
		Blue:   rawBlue.And(fieldMask),
		Yellow: rawYellow.And(fieldMask),
		Green:  nil,
		Tick:   frame.Tick,
	}
}
