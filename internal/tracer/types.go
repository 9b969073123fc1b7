// Package tracer implements the debug-tracer collaborator of spec.md §4.3:
// callTracer, prestateTracer, and opcodeLogger trace objects stitched
// together from the mirror node's actions/contract-result/opcodes/logs
// endpoints, with a synthetic-transaction fallback for backend-native
// operations that never ran the EVM.
package tracer

// Kind selects which Ethereum-standard tracer produces the trace object
// (spec.md §4.3.1). OpcodeLogger is the default when a caller omits it.
type Kind string

const (
	CallTracerKind     Kind = "callTracer"
	PrestateTracerKind Kind = "prestateTracer"
	OpcodeLoggerKind   Kind = "opcodeLogger"
)

// Config is tracer_config: the tracer selector plus the per-tracer flags
// spec.md §4.3.1 dispatches on.
type Config struct {
	Tracer Kind

	// OnlyTopCall restricts callTracer/prestateTracer to the root call.
	OnlyTopCall bool

	// EnableMemory/DisableStack/DisableStorage drive opcodeLogger's
	// per-field nullability.
	EnableMemory   bool
	DisableStack   bool
	DisableStorage bool
}

// CallFrame is one callTracer call-tree node (spec.md §4.3.1).
type CallFrame struct {
	Type         string       `json:"type"`
	From         string       `json:"from"`
	To           string       `json:"to"`
	Value        string       `json:"value"`
	Gas          string       `json:"gas"`
	GasUsed      string       `json:"gasUsed"`
	Input        string       `json:"input"`
	Output       string       `json:"output"`
	Error        string       `json:"error,omitempty"`
	RevertReason string       `json:"revertReason,omitempty"`
	Calls        []*CallFrame `json:"calls"`
}

// StructLog is one opcodeLogger step (spec.md §4.3.1). Stack/Memory/Storage/
// Reason are pointers so a disabled flag marshals as a JSON `null` rather
// than being omitted, matching the per-field nullability spec.md requires.
type StructLog struct {
	PC      uint64             `json:"pc"`
	Op      string             `json:"op"`
	Gas     uint64             `json:"gas"`
	GasCost uint64             `json:"gasCost"`
	Depth   int                `json:"depth"`
	Stack   *[]string          `json:"stack"`
	Memory  *[]string          `json:"memory"`
	Storage *map[string]string `json:"storage"`
	Reason  *string            `json:"reason"`
}

// OpcodeTrace is opcodeLogger's top-level result (spec.md §4.3.1).
type OpcodeTrace struct {
	Gas         uint64      `json:"gas"`
	Failed      bool        `json:"failed"`
	ReturnValue string      `json:"returnValue"`
	StructLogs  []StructLog `json:"structLogs"`
}

// AccountState is one prestateTracer entry (spec.md §4.3.1).
type AccountState struct {
	Balance string            `json:"balance"`
	Nonce   uint64            `json:"nonce"`
	Code    string            `json:"code"`
	Storage map[string]string `json:"storage"`
}

// PrestateResult maps an EVM address to its pre-call state.
type PrestateResult map[string]AccountState

// BlockTraceEntry is one element of trace_block_by_number's result
// (spec.md §4.3.2).
type BlockTraceEntry struct {
	TxHash string      `json:"txHash"`
	Result interface{} `json:"result"`
}
