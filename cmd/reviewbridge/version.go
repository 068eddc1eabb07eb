package main

import (
	"fmt"
	"runtime/debug"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func buildVersionString() string {
	v := version
	revision := ""

	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				revision = s.Value[:7]
			}
		}
	}

	if v == "" {
		v = "dev"
	}
	if revision != "" {
		return fmt.Sprintf("reviewbridge %s (%s)", v, revision)
	}
	return "reviewbridge " + v
}
