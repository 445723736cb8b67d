//go:build ignore
// +build ignore

package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/ArkLabsHQ/sentinel/internal/config"
	log "github.com/sirupsen/logrus"
)

func main() {
	out := flag.String("out", "docs/environment.md", "markdown file to write")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.WithError(err).Fatal("failed to create docs dir")
	}
	doc := config.RenderEnvDoc(config.EnvSpecs())
	if err := os.WriteFile(*out, []byte(doc), 0o644); err != nil {
		log.WithError(err).Fatal("failed to write env doc")
	}
	log.Infof("wrote %s", *out)
}
