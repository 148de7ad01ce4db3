// Package main is the entry point for the warsztat CLI and server.
package main

func main() {
	Execute()
}
