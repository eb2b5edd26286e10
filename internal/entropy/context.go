package entropy

import "github.com/pkg/errors"

// ErrMissingContextTable is returned by DecodeContext when no frequency
// table has been registered for the requested context.
var ErrMissingContextTable = errors.New("entropy: missing context table")

// Context identifies an independent probability context: a (channel,
// zigzag band) pair for VarDCT coefficients, or a (channel, predictor)
// pair for Modular residuals. Exactly one of Band/Predictor is meaningful
// depending on Kind (spec.md §4.7: "partitions coefficients by (channel,
// zigzag index band, DC/AC)... at lossless, Modular residuals use a
// separate context set keyed on predictor choice").
type Context struct {
	Kind      ContextKind
	Channel   int
	Band      int // VarDCT: 0=DC, 1=low-frequency AC, 2=high-frequency AC
	Predictor int // Modular: which predictor produced the residual
}

// ContextKind distinguishes VarDCT coefficient contexts from Modular
// residual contexts.
type ContextKind uint8

const (
	ContextVarDCT ContextKind = iota
	ContextModular
)

// Key returns a small dense integer for indexing a per-context slice of
// FreqTables.
func (c Context) Key() int {
	return int(c.Kind)<<8 | c.Channel<<4 | c.Band<<2 | c.Predictor
}

// Model holds one FreqTable per context, keyed by Context.Key(). Building
// and looking up frequency tables per context is the shared piece between
// the rANS path and any future higher-effort context-mixing scheme; kept
// as a thin map so both the encoder's histogram pass and the decoder's
// table reconstruction pass share the same indexing.
type Model struct {
	tables map[int]*FreqTable
}

// NewModel returns an empty context model.
func NewModel() *Model {
	return &Model{tables: make(map[int]*FreqTable)}
}

// Set installs the frequency table for ctx.
func (m *Model) Set(ctx Context, table *FreqTable) {
	m.tables[ctx.Key()] = table
}

// Get returns the frequency table for ctx, or nil if none was set.
func (m *Model) Get(ctx Context) *FreqTable {
	return m.tables[ctx.Key()]
}

// EncodeContext builds (if absent) and applies the frequency table for ctx
// from the provided symbols, returning the encoded stream and the table so
// the caller can serialize it into the section preamble.
func EncodeContext(m *Model, ctx Context, symbols []int, alphabetSize int, scaleBits uint) ([]byte, *FreqTable, error) {
	table := m.Get(ctx)
	if table == nil {
		counts := Histogram(symbols, alphabetSize)
		var err error
		table, err = BuildFreqTable(counts, scaleBits)
		if err != nil {
			return nil, nil, err
		}
		m.Set(ctx, table)
	}
	return Encode(table, symbols), table, nil
}

// DecodeContext decodes n symbols for ctx using a table previously
// registered with Set (typically reconstructed from the section preamble).
func DecodeContext(m *Model, ctx Context, data []byte, n int) ([]int, error) {
	table := m.Get(ctx)
	if table == nil {
		return nil, ErrMissingContextTable
	}
	return Decode(table, data, n)
}
