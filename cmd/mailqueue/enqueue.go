package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
)

var errUnsupportedFormat = errors.New("unsupported request file format")

// EnqueueCmd stores one request read from a file, e.g.
//
//	to: jane@example.com
//	subject: Welcome
//	template: registration_approved
//	variables:
//	  name: Jane
type EnqueueCmd struct {
	File string `short:"f" required:"" type:"existingfile" help:"Request file (.yaml, .yml or .json)."`
}

func (cmd *EnqueueCmd) Run(g *Globals) error {
	req, err := readRequest(cmd.File)
	if err != nil {
		return err
	}

	a, err := newApp(g)
	if err != nil {
		return err
	}
	if err := a.requirePersistent("enqueue"); err != nil {
		return err
	}
	if err := a.openStore(g.ctx, false); err != nil {
		return err
	}
	defer a.Close()

	enqueuer, err := a.newEnqueuer()
	if err != nil {
		return err
	}
	id, err := enqueuer.Enqueue(g.ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func readRequest(path string) (mailqueue.Request, error) {
	var req mailqueue.Request

	raw, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		err = dec.Decode(&req)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		err = dec.Decode(&req)
	default:
		return req, fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}
	if err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}
