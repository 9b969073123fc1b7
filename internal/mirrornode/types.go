package mirrornode

import "github.com/tidwall/gjson"

// EntityType distinguishes the kinds of addresses the tracer's address
// resolution step (spec.md §4.3.5) may encounter.
type EntityType string

const (
	EntityContract EntityType = "CONTRACT"
	EntityToken    EntityType = "TOKEN"
	EntityAccount  EntityType = "ACCOUNT"
)

// Block is the subset of a mirror-node block record this gateway needs.
type Block struct {
	Number       int64
	Hash         string
	Timestamp    TimestampRange
	GasUsed      int64
	PreviousHash string
}

// TimestampRange is a mirror-node {from, to} consensus timestamp window.
type TimestampRange struct {
	From string
	To   string
}

// ContractResult is the subset of contracts/results/{id} used by the
// transaction service and tracer (spec.md §4.1, §4.3.1).
type ContractResult struct {
	TransactionID string
	Hash          string
	From          string
	To            string
	Value         string
	Gas           int64
	GasUsed       int64
	Input         string
	CallResult    string
	Result        string // SUCCESS, WRONG_NONCE, MAX_GAS_LIMIT_EXCEEDED, ...
	Timestamp     string
	BlockNumber   int64

	// Signature envelope fields, read only by get_raw_block (spec.md
	// §4.3.3) to reconstruct each transaction's EIP-2718 encoding.
	Nonce                int64
	Type                 int64
	ChainID              string
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	V                    int64
	R                    string
	S                    string
}

// Action is one entry of contracts/results/{id}/actions — a call-tree node
// (spec.md §4.3.1).
type Action struct {
	CallDepth  int64
	CallType   string
	From       string
	To         string
	Value      string
	Gas        int64
	GasUsed    int64
	Input      string
	Output     string
	ResultData string
	Timestamp  string
}

// Opcodes is the decoded response of contracts/results/{id}/opcodes.
type Opcodes struct {
	Gas         int64
	Failed      bool
	ReturnValue string
	StructLogs  []StructLog
}

// StructLog is one opcode-level trace entry.
type StructLog struct {
	PC      int64
	Op      string
	Gas     int64
	GasCost int64
	Depth   int64
	Stack   []string
	Memory  []string
	Storage map[string]string
	Reason  string
}

// Log is a contract event log (spec.md §4.3.4's synthetic-transaction
// fallback reads Transfer-shaped logs).
type Log struct {
	Address string
	Topics  []string
	Data    string
	TxHash  string
}

// Entity is a resolved contract/token entity (spec.md §4.3.5). RuntimeBytecode
// is only populated for CONTRACT entities, read by the prestate tracer
// (spec.md §4.3.1).
type Entity struct {
	Type            EntityType
	EVMAddress      string
	Address         string
	RuntimeBytecode string
}

// Account is a mirror-node account record (spec.md §4.1 precheck reads).
type Account struct {
	Address        string
	EVMAddress     string
	Balance        int64
	EthereumNonce  int64
	Exists         bool
}

// StorageSlot is one contract-state slot (spec.md §4.3.1 prestateTracer).
type StorageSlot struct {
	Slot  string
	Value string
}

// ExchangeRate is network/exchangerate's current_rate (spec.md §4.2 fee
// accounting's record-charge-amount formula input).
type ExchangeRate struct {
	CentEquivalent int64
	HbarEquivalent int64
	ExpirationTime int64
}

func parseBlock(body []byte) Block {
	j := gjson.ParseBytes(body)
	return Block{
		Number:       j.Get("number").Int(),
		Hash:         j.Get("hash").String(),
		PreviousHash: j.Get("previous_hash").String(),
		GasUsed:      j.Get("gas_used").Int(),
		Timestamp: TimestampRange{
			From: j.Get("timestamp.from").String(),
			To:   j.Get("timestamp.to").String(),
		},
	}
}

func parseContractResult(body []byte) ContractResult {
	j := gjson.ParseBytes(body)
	return ContractResult{
		TransactionID:        j.Get("transaction_id").String(),
		Hash:                 j.Get("hash").String(),
		From:                 j.Get("from").String(),
		To:                   j.Get("to").String(),
		Value:                j.Get("amount").String(),
		Gas:                  j.Get("gas_limit").Int(),
		GasUsed:              j.Get("gas_used").Int(),
		Input:                j.Get("function_parameters").String(),
		CallResult:           j.Get("call_result").String(),
		Result:               j.Get("result").String(),
		Timestamp:            j.Get("timestamp").String(),
		BlockNumber:          j.Get("block_number").Int(),
		Nonce:                j.Get("nonce").Int(),
		Type:                 j.Get("type").Int(),
		ChainID:              j.Get("chain_id").String(),
		GasPrice:             j.Get("gas_price").String(),
		MaxFeePerGas:         j.Get("max_fee_per_gas").String(),
		MaxPriorityFeePerGas: j.Get("max_priority_fee_per_gas").String(),
		V:                    j.Get("v").Int(),
		R:                    j.Get("r").String(),
		S:                    j.Get("s").String(),
	}
}

func parseActions(body []byte) []Action {
	j := gjson.ParseBytes(body)
	arr := j.Get("actions").Array()
	out := make([]Action, 0, len(arr))
	for _, a := range arr {
		out = append(out, Action{
			CallDepth:  a.Get("call_depth").Int(),
			CallType:   a.Get("call_type").String(),
			From:       a.Get("caller").String(),
			To:         a.Get("recipient").String(),
			Value:      a.Get("value").String(),
			Gas:        a.Get("gas").Int(),
			GasUsed:    a.Get("gas_used").Int(),
			Input:      a.Get("input").String(),
			Output:     a.Get("result_data").String(),
			ResultData: a.Get("result_data_type").String(),
			Timestamp:  a.Get("timestamp").String(),
		})
	}
	return out
}

func parseOpcodes(body []byte) Opcodes {
	j := gjson.ParseBytes(body)
	logs := j.Get("opcodes").Array()
	out := Opcodes{
		Gas:         j.Get("gas").Int(),
		Failed:      j.Get("failed").Bool(),
		ReturnValue: j.Get("return_value").String(),
		StructLogs:  make([]StructLog, 0, len(logs)),
	}
	for _, l := range logs {
		sl := StructLog{
			PC:      l.Get("pc").Int(),
			Op:      l.Get("op").String(),
			Gas:     l.Get("gas").Int(),
			GasCost: l.Get("gas_cost").Int(),
			Depth:   l.Get("depth").Int(),
			Reason:  l.Get("reason").String(),
		}
		if stack := l.Get("stack"); stack.IsArray() {
			for _, s := range stack.Array() {
				sl.Stack = append(sl.Stack, s.String())
			}
		}
		if mem := l.Get("memory"); mem.IsArray() {
			for _, m := range mem.Array() {
				sl.Memory = append(sl.Memory, m.String())
			}
		}
		if storage := l.Get("storage"); storage.IsObject() {
			sl.Storage = make(map[string]string)
			storage.ForEach(func(k, v gjson.Result) bool {
				sl.Storage[k.String()] = v.String()
				return true
			})
		}
		out.StructLogs = append(out.StructLogs, sl)
	}
	return out
}

func parseLog(j gjson.Result) Log {
	topics := make([]string, 0, 4)
	for _, t := range j.Get("topics").Array() {
		topics = append(topics, t.String())
	}
	return Log{
		Address: j.Get("address").String(),
		Topics:  topics,
		Data:    j.Get("data").String(),
		TxHash:  j.Get("transaction_hash").String(),
	}
}

func parseEntity(body []byte, t EntityType) Entity {
	j := gjson.ParseBytes(body)
	return Entity{
		Type:            t,
		EVMAddress:      j.Get("evm_address").String(),
		Address:         j.Get("contract_id").String(),
		RuntimeBytecode: j.Get("runtime_bytecode").String(),
	}
}

func parseAccount(body []byte) Account {
	j := gjson.ParseBytes(body)
	if !j.Exists() {
		return Account{Exists: false}
	}
	return Account{
		Address:       j.Get("account").String(),
		EVMAddress:    j.Get("evm_address").String(),
		Balance:       j.Get("balance.balance").Int(),
		EthereumNonce: j.Get("ethereum_nonce").Int(),
		Exists:        true,
	}
}
