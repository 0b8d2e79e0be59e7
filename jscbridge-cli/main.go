package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"

	"github.com/yejune/go-jsc-bridge/jscbridge-cli/cmd"
	_ "github.com/yejune/go-jsc-bridge/jscbridge-cli/cmd/run"
	_ "github.com/yejune/go-jsc-bridge/jscbridge-cli/cmd/types"
)

func main() {
	art := figure.NewFigure("JSC Bridge", "slant", true)
	art.Print()
	fmt.Println()
	cmd.Execute()
}
