package main

import (
	"github.com/breathlab/respire/cmd"
	"github.com/breathlab/respire/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
