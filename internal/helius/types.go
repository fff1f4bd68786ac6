package helius

import "encoding/json"

// EnhancedTransaction is one parsed transaction as delivered by the Helius
// enhanced-transactions API, both in webhook payloads and history pages.
type EnhancedTransaction struct {
	Description      string        `json:"description"`
	Type             string        `json:"type"`
	Source           string        `json:"source"` // venue label, e.g. "RAYDIUM"
	Fee              int64         `json:"fee"`
	FeePayer         string        `json:"feePayer"`
	Signature        string        `json:"signature"`
	Slot             int64         `json:"slot"`
	Timestamp        int64         `json:"timestamp"` // Unix seconds
	Instructions     []Instruction `json:"instructions"`
	TransactionError *TxError      `json:"transactionError"`
	Events           Events        `json:"events"`
}

// Instruction is a top-level instruction of a transaction. Only the program
// id is consumed here (venue resolution).
type Instruction struct {
	ProgramID string   `json:"programId"`
	Accounts  []string `json:"accounts"`
	Data      string   `json:"data"`
}

// TxError marks a failed transaction.
type TxError struct {
	Error string `json:"error"`
}

// Events carries the structured event section. Swap is kept raw because its
// shape varies across delivery paths: a single object, an array of objects,
// or an object whose hops live in innerSwaps. See ParseSwapEvents.
type Events struct {
	Swap json.RawMessage `json:"swap"`
}

// SwapEvent is one decoded swap entry.
type SwapEvent struct {
	NativeInput  *NativeAmount  `json:"nativeInput"`
	NativeOutput *NativeAmount  `json:"nativeOutput"`
	TokenInputs  []SwapToken    `json:"tokenInputs"`
	TokenOutputs []SwapToken    `json:"tokenOutputs"`
	TokenFees    []SwapToken    `json:"tokenFees"`
	NativeFees   []NativeAmount `json:"nativeFees"`
	InnerSwaps   []InnerSwap    `json:"innerSwaps"`
}

// NativeAmount is a native SOL leg. Amount is lamports as a decimal string.
type NativeAmount struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// SwapToken is a token leg of a top-level swap entry.
type SwapToken struct {
	UserAccount    string         `json:"userAccount"`
	TokenAccount   string         `json:"tokenAccount"`
	Mint           string         `json:"mint"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount is an unnormalized token amount with its mint decimals.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int    `json:"decimals"`
}

// InnerSwap is a single hop of a routed swap. Its legs carry amounts already
// normalized to whole units, unlike the raw top-level legs.
type InnerSwap struct {
	TokenInputs  []TokenTransfer  `json:"tokenInputs"`
	TokenOutputs []TokenTransfer  `json:"tokenOutputs"`
	TokenFees    []TokenTransfer  `json:"tokenFees"`
	NativeFees   []NativeTransfer `json:"nativeFees"`
	ProgramInfo  *ProgramInfo     `json:"programInfo"`
}

// TokenTransfer is a normalized token movement within an inner swap.
type TokenTransfer struct {
	FromUserAccount  string  `json:"fromUserAccount"`
	ToUserAccount    string  `json:"toUserAccount"`
	FromTokenAccount string  `json:"fromTokenAccount"`
	ToTokenAccount   string  `json:"toTokenAccount"`
	TokenAmount      float64 `json:"tokenAmount"`
	Mint             string  `json:"mint"`
}

// NativeTransfer is a SOL movement within an inner swap, in lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// ProgramInfo identifies the program that executed an inner swap hop.
type ProgramInfo struct {
	Source          string `json:"source"`
	Account         string `json:"account"`
	ProgramName     string `json:"programName"`
	InstructionName string `json:"instructionName"`
}

// ParseSwapEvents decodes the raw events.swap section into an ordered list
// of swap entries. A single object and an array of objects are both
// accepted; absent or null sections yield an empty list. Inner swaps are
// not expanded here, they stay attached to their parent entry.
func ParseSwapEvents(raw json.RawMessage) ([]SwapEvent, error) {
	trimmed := trimJSON(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var events []SwapEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	case '{':
		var event SwapEvent
		if err := json.Unmarshal(trimmed, &event); err != nil {
			return nil, err
		}
		return []SwapEvent{event}, nil
	default:
		return nil, errBadSwapSection
	}
}

func trimJSON(raw json.RawMessage) []byte {
	start, end := 0, len(raw)
	for start < end && isJSONSpace(raw[start]) {
		start++
	}
	for end > start && isJSONSpace(raw[end-1]) {
		end--
	}
	return raw[start:end]
}

func isJSONSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
