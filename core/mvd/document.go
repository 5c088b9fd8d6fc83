// Package mvd holds a multi-version document: the registered versions and
// the run list in which they share text where they agree.
package mvd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/linkpair"
	"github.com/FocuswithJustin/nmerge/core/pair"
	"github.com/FocuswithJustin/nmerge/core/versions"
)

// Version describes one version of the document.
type Version struct {
	ID        int    `json:"id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name,omitempty"`
	Group     string `json:"group,omitempty"`
	// BLAKE3 of the version text, hex encoded
	Digest string `json:"digest"`
	Length int    `json:"length"`
}

// Document is a multi-version document. It is not safe for concurrent use;
// one alignment at a time owns it.
type Document struct {
	versions []Version
	// texts own the character storage the runs refer to
	texts map[int][]rune
	list  *linkpair.List
	head  linkpair.NodeID
}

// New creates an empty document.
func New() *Document {
	return &Document{
		texts: make(map[int][]rune),
		list:  linkpair.New(nil),
		head:  linkpair.Nil,
	}
}

// NewWithCapacity creates an empty document whose run list holds at most
// capacity nodes.
func NewWithCapacity(capacity int) *Document {
	d := New()
	d.list = linkpair.NewWithCapacity(nil, capacity)
	return d
}

// Versions returns the registered versions in the order they were added.
func (d *Document) Versions() []Version {
	return append([]Version(nil), d.versions...)
}

// Version looks up a version by id.
func (d *Document) Version(id int) (Version, error) {
	for _, v := range d.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return Version{}, errors.NewNotFound("version", fmt.Sprint(id))
}

// List returns the run list.
func (d *Document) List() *linkpair.List { return d.list }

// Head returns the first node of the run list, or linkpair.Nil when the
// document is empty.
func (d *Document) Head() linkpair.NodeID { return d.head }

// Runs returns the runs in list order.
func (d *Document) Runs() []*pair.Run {
	if d.head == linkpair.Nil {
		return nil
	}
	return d.list.ToArray(d.head)
}

// VersionText reconstructs the text of version id by reading every run that
// carries it.
func (d *Document) VersionText(id int) (string, error) {
	if _, err := d.Version(id); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, r := range d.Runs() {
		if !r.IsHint() && r.Versions.Has(id) {
			sb.WriteString(string(r.Text))
		}
	}
	return sb.String(), nil
}

// Validate checks the structural invariants of the run list.
func (d *Document) Validate() error {
	if d.head == linkpair.Nil {
		return nil
	}
	if d.list.IsCircular(d.head) {
		return errors.NewInvariant("acyclic run list", fmt.Sprintf("cycle reachable from node %d", d.head))
	}
	if d.list.Left(d.head) != linkpair.Nil {
		return errors.NewInvariant("list head", fmt.Sprintf("node %d has a left neighbour", d.head))
	}
	if n := d.list.Len(d.head); n != d.list.Live() {
		return errors.NewInvariant("run list reachability", fmt.Sprintf("%d of %d nodes reachable from the head", n, d.list.Live()))
	}
	for i, r := range d.list.ToArray(d.head) {
		if r.Versions.Empty() {
			return errors.NewInvariant("run versions", fmt.Sprintf("run %d has no versions", i))
		}
		if !r.IsHint() && r.Len() == 0 {
			return errors.NewInvariant("run text", fmt.Sprintf("run %d is empty", i))
		}
	}
	return nil
}

// register records a new version and returns its id.
func (d *Document) register(meta Meta, text []rune) (Version, error) {
	id := len(d.versions) + 1
	if id > versions.MaxVersion {
		return Version{}, errors.NewValidation("version", fmt.Sprintf("document already holds %d versions", len(d.versions)))
	}
	name := meta.ShortName
	if name == "" {
		name = fmt.Sprintf("v%d", id)
	}
	for _, v := range d.versions {
		if v.ShortName == name {
			return Version{}, &errors.ValidationError{Field: "short_name", Value: name, Message: "version name already in use"}
		}
	}
	sum := blake3.Sum256([]byte(string(text)))
	v := Version{
		ID:        id,
		ShortName: name,
		LongName:  meta.LongName,
		Group:     meta.Group,
		Digest:    hex.EncodeToString(sum[:]),
		Length:    len(text),
	}
	d.versions = append(d.versions, v)
	d.texts[id] = text
	return v, nil
}
