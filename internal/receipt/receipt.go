// Package receipt writes JSON audit records. A receipt file is created once
// and never read back or merged.
package receipt

import (
	"encoding/json"
	"fmt"
	"time"

	"cron-shell/internal/models"
	"cron-shell/internal/store"
)

// Dir is the store prefix for run receipts.
const Dir = "artifacts/receipts/"

// KeyPrefix namespaces idempotency keys.
const KeyPrefix = "cron-shell:"

type Writer struct {
	Store store.Store
	Now   func() time.Time
}

func NewWriter(s store.Store) *Writer {
	return &Writer{Store: s, Now: time.Now}
}

// Key returns the store key of the receipt for runID.
func Key(runID string) string { return Dir + runID + ".json" }

// Write stores the receipt for runID and returns its path. Calling it twice
// with the same runID overwrites the first receipt.
func (w *Writer) Write(runID, inputsHash, decision string, effects []models.SideEffect, notes string) (string, error) {
	if effects == nil {
		effects = []models.SideEffect{}
	}
	ts := w.Now().Unix()
	rec := models.Receipt{
		TS:                ts,
		IdempotencyKey:    KeyPrefix + runID,
		InputsHash:        inputsHash,
		Decision:          decision,
		SideEffects:       effects,
		ValidityCheckedAt: ts,
		Notes:             notes,
	}
	key := Key(runID)
	if err := w.Store.Save(key, rec); err != nil {
		return "", fmt.Errorf("write receipt %s: %w", runID, err)
	}
	return w.Store.Path(key), nil
}

// ToolInvocation describes a tool call recorded by WriteTool.
type ToolInvocation struct {
	Tool    string
	Params  string
	Outputs []string
	Reason  string
	Cwd     string
}

// ParseParams decodes raw as JSON. Text that is not valid JSON is kept as
// {"raw": text}.
func ParseParams(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return map[string]string{"raw": raw}
	}
	return v
}

// WriteTool stores a receipt for inv under key and returns its path.
func (w *Writer) WriteTool(key string, inv ToolInvocation) (string, error) {
	outputs := inv.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	rec := models.ToolReceipt{
		TS:      w.Now().Unix(),
		Tool:    inv.Tool,
		Params:  ParseParams(inv.Params),
		Outputs: outputs,
		Reason:  inv.Reason,
		Cwd:     inv.Cwd,
	}
	if err := w.Store.Save(key, rec); err != nil {
		return "", fmt.Errorf("write tool receipt: %w", err)
	}
	return w.Store.Path(key), nil
}
