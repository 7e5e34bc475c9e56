package pass

// Base provides the identity plumbing shared by passes.
type Base struct {
	info Info
}

// NewBase seeds the helper with pass info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// Info implements Pass.Info.
func (b *Base) Info() Info {
	return b.info
}
