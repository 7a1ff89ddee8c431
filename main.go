package main

import "github.com/llehouerou/k12listen/internal/cli"

func main() {
	cli.Execute()
}
