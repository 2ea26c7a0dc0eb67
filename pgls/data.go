package main

import (
	"os"
	"unicode/utf8"

	"bitbucket.org/Davydov/pgls/data"
	"bitbucket.org/Davydov/pgls/tree"
)

// readTree reads and validates the input tree.
func readTree() *tree.Tree {
	treeFile, err := os.Open(*treeFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer treeFile.Close()

	t, err := tree.ParseNewick(treeFile)
	if err != nil {
		log.Fatal(err)
	}
	if err := t.Validate(); err != nil {
		log.Fatal(err)
	}

	log.Debugf("intree=%s", t)
	log.Debug(t.FullString())
	log.Infof("Read a tree with %d tips, height %g", t.NLeaves(), t.Height())
	return t
}

// sepRune converts the separator flag into a rune.
func sepRune() rune {
	switch *separator {
	case "\\t", "tab":
		return '\t'
	}
	r, size := utf8.DecodeRuneInString(*separator)
	if size != len(*separator) {
		log.Fatalf("Separator must be a single character, got %q", *separator)
	}
	return r
}

// newData reads the tree and the trait table and binds them into a
// regression dataset.
func newData() (*data.Bound, error) {
	t := readTree()

	if *dataFileName == "" {
		log.Fatal("A trait table is required (--data)")
	}
	if *responseName == "" {
		log.Fatal("A response column is required (--response)")
	}

	tbl, err := data.ReadTableFile(*dataFileName, sepRune())
	if err != nil {
		return nil, err
	}
	log.Infof("Read a table with %d rows", tbl.NIDs())

	spec := &data.Spec{
		Response:    *responseName,
		Predictors:  *predictorList,
		NoIntercept: *noIntercept,
	}
	b, err := data.Bind(t, tbl, spec)
	if err != nil {
		return nil, err
	}

	if b.DroppedTips > 0 || b.DroppedRows > 0 {
		log.Noticef("Dropped %d tips and %d rows without complete data",
			b.DroppedTips, b.DroppedRows)
	}
	log.Infof("Using %d observations, %d design columns", len(b.Y), len(b.CoefNames))
	return b, nil
}
