package stage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the dump format changes.
const treeSchemaVersion uint16 = 1

// DumpExt is the file extension for serialized stage trees.
const DumpExt = ".otree"

// treePayload is the on-disk form of a Tree. The external frontend and the
// lowering passes exchange trees with the validator through these dumps.
type treePayload struct {
	Schema uint16
	Stage  uint8
	Unit   string

	Nodes    []Node
	Root     NodeID
	Funcs    []Func
	Artifact *Artifact
}

// Dump serializes the tree to path, atomically. The file is written next
// to its final location and renamed into place.
func Dump(path string, tree *Tree) error {
	if tree == nil {
		return errors.New("nil tree")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	payload := treePayload{
		Schema:   treeSchemaVersion,
		Stage:    uint8(tree.Stage),
		Unit:     tree.Unit,
		Nodes:    tree.Nodes,
		Root:     tree.Root,
		Funcs:    tree.Funcs,
		Artifact: tree.Artifact,
	}
	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads a serialized tree back. A schema or stage-tag mismatch fails
// loudly: a stale or corrupted dump must never masquerade as a valid tree.
func Load(path string) (*Tree, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var payload treePayload
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if payload.Schema != treeSchemaVersion {
		return nil, fmt.Errorf("%s: dump schema %d, this build reads %d", path, payload.Schema, treeSchemaVersion)
	}
	kind := Kind(payload.Stage)
	if !kind.Valid() {
		return nil, fmt.Errorf("%s: unknown stage tag %d", path, payload.Stage)
	}

	tree := &Tree{
		Stage:    kind,
		Unit:     payload.Unit,
		Nodes:    payload.Nodes,
		Root:     payload.Root,
		Funcs:    payload.Funcs,
		Artifact: payload.Artifact,
	}
	if len(tree.Nodes) == 0 {
		tree.Nodes = []Node{{ID: NoNode, Kind: NodeInvalid}}
	}
	return tree, nil
}
