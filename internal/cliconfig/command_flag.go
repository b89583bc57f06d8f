package cliconfig

import (
	"strings"

	pflag "github.com/spf13/pflag"
)

// CommandFlag is a pflag.Value holding a command line. The flag value is
// split on whitespace; each element may carry {placeholder} tokens.
type CommandFlag struct {
	dst *[]string
}

// NewCommandFlag returns a flag value writing to dst.
func NewCommandFlag(dst *[]string) *CommandFlag {
	return &CommandFlag{dst: dst}
}

func (f *CommandFlag) String() string {
	if f.dst == nil {
		return ""
	}
	return strings.Join(*f.dst, " ")
}

func (f *CommandFlag) Set(v string) error {
	*f.dst = strings.Fields(v)
	return nil
}

func (f *CommandFlag) Type() string { return "command" }

var _ pflag.Value = (*CommandFlag)(nil)
