package passes

import (
	"github.com/kingrea/nbtidy/internal/pass"
	"github.com/kingrea/nbtidy/internal/passes/defguard"
	"github.com/kingrea/nbtidy/internal/passes/steporder"
)

// RegisterBuiltins installs every built-in notebook pass.
func RegisterBuiltins(reg *pass.Registry) {
	if reg == nil {
		return
	}
	defguard.Register(reg)
	steporder.Register(reg)
}
