// Package main is the entry point of the repostudy CLI.
package main

import (
	"github.com/huangsam/repostudy/cmd"
	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("repostudy", err)
	}
}
