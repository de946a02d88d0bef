package main

import "github.com/Togather-Foundation/books/cmd/server/cmd"

func main() {
	cmd.Execute()
}
