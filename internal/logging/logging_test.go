package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestWithComponentJSON(t *testing.T) {
	saved := log.Logger
	defer func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	var buf bytes.Buffer
	Init(Options{JSON: true, Out: &buf})
	logger := WithComponent("director")
	logger.Info().Str("theme", "luxe").Msg("applied")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not a JSON line: %q", buf.String())
	}
	if line["component"] != "director" || line["theme"] != "luxe" || line["message"] != "applied" {
		t.Errorf("unexpected fields: %v", line)
	}
}

func TestVerboseLevel(t *testing.T) {
	saved := log.Logger
	defer func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	var buf bytes.Buffer
	Init(Options{JSON: true, Out: &buf})
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %q", buf.String())
	}

	Init(Options{JSON: true, Verbose: true, Out: &buf})
	log.Debug().Msg("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Error("debug line missing in verbose mode")
	}
}
