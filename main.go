package main

import (
	"fmt"
	"os"

	"fjacquet/stmt-extract/cmd/batch"
	"fjacquet/stmt-extract/cmd/extract"
	"fjacquet/stmt-extract/cmd/root"
	"fjacquet/stmt-extract/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(extract.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
