package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmdRegistersAllSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"split", "join", "archive-split", "join-archive", "bench-rc4"}, names)
}

func TestSplitRequiresTwoArguments(t *testing.T) {
	cmd := newSplitCmd()
	assert.Error(t, cmd.Args(cmd, []string{"only-one"}))
}
