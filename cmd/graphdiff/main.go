package main

import "os"

func main() {
	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		os.Exit(handleError(cmd, err))
	}
}
