package main

import (
	cmd "github.com/kerbaras/mangaread/cmd/mangas"
)

func main() {
	cmd.Execute()
}
