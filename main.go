// Package main is the entry point for the hltvds CLI tool, which crawls
// HLTV match pages and builds a relational dataset of professional CS
// competitions (teams, players, matches, maps, rounds, player box scores).
package main

import "github.com/pable/go-hltv-dataset/cmd"

func main() {
	cmd.Execute()
}
