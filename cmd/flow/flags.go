package main

import (
	"flag"
	"io"
	"strings"
)

type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type cliArgs struct {
	cfgPath   string
	overrides stringSlice
	transport string
	responder string
	logLevel  string
	typed     bool
	writeCfg  bool
}

func parseArgs(name string, args []string, errOut io.Writer) (cliArgs, error) {
	var cli cliArgs
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cli.cfgPath, "config", "", "Path to config file (default ~/.flow/config.toml)")
	fs.Var(&cli.overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&cli.transport, "transport", "", "Link to the phone: loopback or redis")
	fs.StringVar(&cli.responder, "responder", "", "Phone responder for loopback: echo, openai or anthropic")
	fs.StringVar(&cli.logLevel, "log", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&cli.typed, "typed", false, "Type dictation instead of recording with whisper")
	fs.BoolVar(&cli.writeCfg, "write-config", false, "Write the effective config to -config (or ~/.flow/config.toml) and exit")
	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	return cli, nil
}

// overrideList 将快捷参数折叠为 -c 形式，显式 -c 优先。
func (c cliArgs) overrideList() []string {
	var out []string
	if v := strings.TrimSpace(c.transport); v != "" {
		out = append(out, "transport.kind="+v)
	}
	if v := strings.TrimSpace(c.responder); v != "" {
		out = append(out, "peer.responder="+v)
	}
	if v := strings.TrimSpace(c.logLevel); v != "" {
		out = append(out, "log.level="+v)
	}
	return append(out, c.overrides...)
}
