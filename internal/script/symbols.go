package script

import (
	"reflect"

	"scriptbot/internal/host"

	"github.com/traefik/yaegi/interp"
)

// hostSymbols exposes the host API to interpreted scripts under the
// import path "scriptbot/host". Everything a script can touch goes
// through this table; there is no other bridge into the process.
func hostSymbols() interp.Exports {
	return interp.Exports{
		"scriptbot/host/host": {
			// Types
			"Bot":          reflect.ValueOf((*host.Bot)(nil)),
			"Ctx":          reflect.ValueOf((*host.Ctx)(nil)),
			"Command":      reflect.ValueOf((*host.Command)(nil)),
			"Message":      reflect.ValueOf((*host.Message)(nil)),
			"Meta":         reflect.ValueOf((*host.Meta)(nil)),
			"Storage":      reflect.ValueOf((*host.Storage)(nil)),
			"Scheduler":    reflect.ValueOf((*host.Scheduler)(nil)),
			"HandlerFunc":  reflect.ValueOf((*host.HandlerFunc)(nil)),
			"ListenerFunc": reflect.ValueOf((*host.ListenerFunc)(nil)),
			"PrintLevel":   reflect.ValueOf((*host.PrintLevel)(nil)),

			// Print levels
			"PrintInfo":    reflect.ValueOf(host.PrintInfo),
			"PrintSuccess": reflect.ValueOf(host.PrintSuccess),
			"PrintError":   reflect.ValueOf(host.PrintError),

			// Sentinel errors scripts may want to match
			"ErrCommandExists": reflect.ValueOf(host.ErrCommandExists),
			"ErrAliasConflict": reflect.ValueOf(host.ErrAliasConflict),
			"ErrScriptExists":  reflect.ValueOf(host.ErrScriptExists),
		},
	}
}
