package steporder

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kingrea/nbtidy/internal/config"
	"github.com/kingrea/nbtidy/internal/notebook"
	"github.com/kingrea/nbtidy/internal/pass"
)

const (
	// ID is the registry identifier of the pass.
	ID          = "reorder-steps"
	passVersion = "1.0.0"
)

// Outcomes reported by the pass.
const (
	OutcomeNoHeaders      pass.Outcome = "no-headers"
	OutcomeAlreadyOrdered pass.Outcome = "already-ordered"
	OutcomeReordered      pass.Outcome = "reordered"
)

var (
	headerPattern = regexp.MustCompile(`(?i)^##\s*step\s*(\d+)\s*:`)
	lineBreak     = regexp.MustCompile("\r\n|[\n\r\v\f\x1c\x1d\x1e\u0085\u2028\u2029]")
)

// Reorderer sorts step segments by step number.
type Reorderer struct {
	*pass.Base
}

// Register installs the pass factory into the provided registry.
func Register(reg *pass.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(ID, func(*config.Config) (pass.Pass, error) {
		return New(), nil
	})
}

// New constructs the pass.
func New() *Reorderer {
	info := pass.Info{
		ID:          ID,
		Name:        "Reorder Step Sections",
		Description: "Sorts \"## Step N:\" sections into ascending step order.",
		Version:     passVersion,
	}
	base := pass.NewBase(info)
	return &Reorderer{Base: &base}
}

// StepNumber returns the step number announced by a markdown cell, taken
// from the first line that reads "## Step N:" once trimmed.
func StepNumber(cell *notebook.Cell) (int, bool) {
	if !cell.IsMarkdown() {
		return 0, false
	}
	for _, line := range lineBreak.Split(cell.Text(), -1) {
		m := headerPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		step, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return step, true
	}
	return 0, false
}

type header struct {
	index int
	step  int
}

// segment is the half-open cell range [start, end) opened by one header.
type segment struct {
	step  int
	start int
	end   int
}

func findHeaders(cells []*notebook.Cell) []header {
	var headers []header
	for i, cell := range cells {
		if step, ok := StepNumber(cell); ok {
			headers = append(headers, header{index: i, step: step})
		}
	}
	return headers
}

func partition(headers []header, total int) []segment {
	segments := make([]segment, len(headers))
	for i, h := range headers {
		end := total
		if i+1 < len(headers) {
			end = headers[i+1].index
		}
		segments[i] = segment{step: h.step, start: h.index, end: end}
	}
	return segments
}

// permutation lists the source index of every cell in the reordered
// notebook: the prefix first, then each segment in ascending step order.
func permutation(segments []segment, prefix int) []int {
	sorted := append([]segment{}, segments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].step < sorted[j].step
	})
	order := make([]int, 0, prefix)
	for i := 0; i < prefix; i++ {
		order = append(order, i)
	}
	for _, seg := range sorted {
		for i := seg.start; i < seg.end; i++ {
			order = append(order, i)
		}
	}
	return order
}

// Run applies the pass to nb.
func (r *Reorderer) Run(ctx *pass.Context, nb *notebook.Notebook) (pass.Result, error) {
	if nb == nil {
		return pass.Result{Status: pass.StatusFailed}, errors.Errorf("%s: notebook is nil", ID)
	}
	log := ctx.PassLog(ID)

	headers := findHeaders(nb.Cells)
	if len(headers) == 0 {
		log.Debug("no step headers", zap.Int("cells", len(nb.Cells)))
		return pass.NoOp(OutcomeNoHeaders, "No step headers found. No changes made."), nil
	}
	found := make([]int, len(headers))
	for i, h := range headers {
		found[i] = h.step
		log.Debug("step header", zap.Int("cell", h.index), zap.Int("step", h.step))
	}

	order := permutation(partition(headers, len(nb.Cells)), headers[0].index)
	sorted := append([]int{}, found...)
	sort.Ints(sorted)
	details := []string{
		"steps found: " + joinInts(found),
		"new order: " + joinInts(sorted),
	}
	if isIdentity(order) {
		return pass.NoOp(OutcomeAlreadyOrdered, "Notebook already in correct order; no changes written.", details...), nil
	}

	cells := make([]*notebook.Cell, len(order))
	for i, from := range order {
		cells[i] = nb.Cells[from]
	}
	nb.Cells = cells
	log.Debug("segments reordered", zap.Ints("steps", sorted))
	return pass.Completed(OutcomeReordered, "Reordered notebook by step numbers.", details...), nil
}

func isIdentity(order []int) bool {
	for i, from := range order {
		if i != from {
			return false
		}
	}
	return true
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
