// cmd/vitalviz/main.go
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/rusenback/vitalviz/cmd/vitalviz/cmd"
)

func main() {
	cmd.Execute()
}
