package main

import (
	"flag"
	"fmt"
	"os"

	"cron-shell/internal/receipt"
	"cron-shell/internal/store"
)

func main() {
	out := flag.String("out", "", "receipt file to write")
	tool := flag.String("tool", "", "name of the tool that was invoked")
	params := flag.String("params", "{}", "tool parameters as JSON")
	reason := flag.String("reason", "ok", "why the tool was invoked")
	var outputs []string
	flag.Func("output", "output file produced by the tool (repeatable)", func(s string) error {
		outputs = append(outputs, s)
		return nil
	})
	flag.Parse()

	if *out == "" || *tool == "" {
		fmt.Fprintln(os.Stderr, "missing --out or --tool")
		os.Exit(2)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "getwd:", err)
		os.Exit(1)
	}

	w := receipt.NewWriter(store.NewFileStore(""))
	if _, err := w.WriteTool(*out, receipt.ToolInvocation{
		Tool:    *tool,
		Params:  *params,
		Outputs: outputs,
		Reason:  *reason,
		Cwd:     cwd,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "write receipt:", err)
		os.Exit(1)
	}
}
