package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "probedeck"}

	root.AddCommand(serveCMD(), hashPasswordCMD())
	_ = root.Execute()
}
