// cmd/blastfasta/main.go
package main

import (
	"blastfasta/internal/app"
	"blastfasta/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
