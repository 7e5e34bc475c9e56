package defguard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kingrea/nbtidy/internal/config"
	"github.com/kingrea/nbtidy/internal/notebook"
	"github.com/kingrea/nbtidy/internal/pass"
)

const (
	// ID is the registry identifier of the pass.
	ID          = "ensure-order"
	passVersion = "1.0.0"
)

// Outcomes reported by the pass.
const (
	OutcomeNoUsage        pass.Outcome = "no-usage"
	OutcomeAlreadyDefined pass.Outcome = "already-defined"
	OutcomeUpdated        pass.Outcome = "updated"
	OutcomeInserted       pass.Outcome = "inserted"
)

// Guard ensures a variable is defined before its first use.
type Guard struct {
	*pass.Base
	cfg   config.DefineConfig
	match matcher
	newID func() string
}

// Option customizes a Guard.
type Option func(*Guard)

// WithIDGenerator overrides how ids for new cells are minted.
func WithIDGenerator(fn func() string) Option {
	return func(g *Guard) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// Register installs the pass factory into the provided registry.
func Register(reg *pass.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(ID, func(cfg *config.Config) (pass.Pass, error) {
		return New(cfg.Define), nil
	})
}

// New constructs the pass. Empty configuration members fall back to the
// built-in defaults.
func New(cfg config.DefineConfig, opts ...Option) *Guard {
	cfg = cfg.WithDefaults()
	info := pass.Info{
		ID:          ID,
		Name:        "Ensure Definition Before Use",
		Description: fmt.Sprintf("Inserts a guarded %s definition ahead of its first use.", cfg.Symbol),
		Version:     passVersion,
	}
	base := pass.NewBase(info)
	g := &Guard{
		Base:  &base,
		cfg:   cfg,
		match: newMatcher(cfg.Symbol),
		newID: newCellID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run applies the pass to nb.
func (g *Guard) Run(ctx *pass.Context, nb *notebook.Notebook) (pass.Result, error) {
	if nb == nil {
		return pass.Result{Status: pass.StatusFailed}, errors.Errorf("%s: notebook is nil", ID)
	}
	symbol, sentinel := g.cfg.Symbol, g.cfg.SentinelTag
	log := ctx.PassLog(ID).With(zap.String("symbol", symbol))

	first := g.match.firstUse(nb.Cells, sentinel)
	if first < 0 {
		log.Debug("no usage found", zap.Int("cells", len(nb.Cells)))
		return pass.NoOp(OutcomeNoUsage, fmt.Sprintf("No usage of %s found; no changes made.", symbol)), nil
	}
	log.Debug("first use located", zap.Int("cell", first))

	if def := g.match.definedBefore(nb.Cells, first, sentinel); def >= 0 {
		log.Debug("definition precedes first use", zap.Int("cell", def))
		return pass.NoOp(OutcomeAlreadyDefined,
			"Definition already exists before first use; no changes made.",
			fmt.Sprintf("first use: cell %d", first),
			fmt.Sprintf("defined in: cell %d", def),
		), nil
	}

	order, source := g.resolveOrder(nb, log)
	details := []string{
		fmt.Sprintf("first use: cell %d", first),
		fmt.Sprintf("%s: %s", symbol, strings.Join(order, ", ")),
		"order source: " + source,
	}

	if at := sentinelCell(nb.Cells, sentinel); at >= 0 {
		existing := nb.Cells[at]
		cell := g.buildCell(order, existing.ID())
		if existing.Equal(cell) {
			log.Debug("sentinel cell already current", zap.Int("cell", at))
			result := pass.NoOp(OutcomeUpdated,
				fmt.Sprintf("Existing %s cell at index %d is already up to date; no changes written.", sentinel, at),
				details...)
			return result, nil
		}
		nb.Cells[at] = cell
		log.Debug("sentinel cell replaced", zap.Int("cell", at))
		return pass.Completed(OutcomeUpdated,
			fmt.Sprintf("Updated existing %s cell at index %d.", sentinel, at),
			details...), nil
	}

	id := ""
	if nb.UsesCellIDs() {
		id = g.newID()
	}
	nb.Insert(first, g.buildCell(order, id))
	log.Debug("definition cell inserted", zap.Int("cell", first))
	return pass.Completed(OutcomeInserted,
		fmt.Sprintf("Inserted %s definition cell at index %d.", symbol, first),
		details...), nil
}

// resolveOrder picks the list written into the guarded cell and describes
// where it came from. Unparsable literals are skipped, never fatal.
func (g *Guard) resolveOrder(nb *notebook.Notebook, log *zap.Logger) ([]string, string) {
	var (
		order   []string
		source  string
		skipped []string
	)
	g.match.literals(nb.Cells, g.cfg.SentinelTag, func(m literalMatch) bool {
		if m.err != nil {
			log.Warn("existing literal could not be parsed; trying later cells",
				zap.Int("cell", m.cell), zap.Error(m.err))
			skipped = append(skipped, strconv.Itoa(m.cell))
			return true
		}
		if len(m.values) == 0 {
			source = fmt.Sprintf("default (literal in cell %d is empty)", m.cell)
			return false
		}
		order = m.values
		source = fmt.Sprintf("literal in cell %d", m.cell)
		return false
	})
	if order != nil {
		return order, source
	}
	if source == "" {
		source = "default"
		if len(skipped) > 0 {
			source = fmt.Sprintf("default (unparsable literal in cell %s)", strings.Join(skipped, ", "))
			log.Warn("falling back to default order", zap.Strings("skipped_cells", skipped))
		}
	}
	return append([]string{}, g.cfg.DefaultOrder...), source
}

func (g *Guard) buildCell(order []string, id string) *notebook.Cell {
	opts := []notebook.CellOption{notebook.WithTags(g.cfg.SentinelTag)}
	if id != "" {
		opts = append(opts, notebook.WithID(id))
	}
	return notebook.NewCell(notebook.KindCode, guardSource(g.cfg, order), opts...)
}

// newCellID mints an nbformat cell id the way Jupyter does: the first eight
// hex digits of a random UUID.
func newCellID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
