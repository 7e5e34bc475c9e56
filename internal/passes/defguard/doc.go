// Package defguard implements the ensure-order pass. It finds the first code
// cell that uses a configured variable (game_type_order by default) and, when
// no earlier cell assigns it, makes sure a guarded definition cell precedes
// that use. The definition cell defines the variable and a derived labels list
// only if they are not already bound, and carries the auto-inserted tag so a
// re-run refreshes that same cell instead of adding another one. The value
// comes from the first list literal assigned to the variable anywhere in the
// notebook, or from the configured default order when none can be parsed.
package defguard
