// Package fixtures populates a store from declarative YAML data sets.
//
// A data set is a mapping whose keys name an entity type and a symbolic
// label, e.g. "User(bob)". Later entries refer to earlier ones by label:
//
//	Post(firstBobPost):
//	    title:    About the model layer
//	    author:   bob
//
// Entries are saved in document order, which is also their insertion order.
package fixtures

import (
	"bytes"
	"embed"
	"io"
	"log"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"yabe/app/models"
	"yabe/app/repositories"
)

//go:embed data/*.yml
var embedded embed.FS

var entryKeyRe = regexp.MustCompile(`^\s*(\w+)\s*\(\s*([\w-]+)\s*\)\s*$`)

// Loader saves fixture entries into a store.
type Loader struct {
	store *repositories.Store
}

// NewLoader creates a Loader writing into store.
func NewLoader(store *repositories.Store) *Loader {
	return &Loader{store: store}
}

// Reset wipes every entity from store. Loading the same data set twice
// without a reset in between fails on the unique email constraint.
func Reset(store *repositories.Store) error {
	return store.Clear()
}

// LoadNamed loads one of the data sets embedded in the binary, such as
// "data.yml".
func (l *Loader) LoadNamed(name string) error {
	if path.Ext(name) == "" {
		name += ".yml"
	}
	data, err := embedded.ReadFile(path.Join("data", name))
	if err != nil {
		return errors.Wrapf(err, "unknown fixture set %q", name)
	}
	return l.load(bytes.NewReader(data), name)
}

// LoadFile loads a data set from disk.
func (l *Loader) LoadFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "opening fixture file")
	}
	defer f.Close()
	return l.load(f, filename)
}

// Load loads a data set from r.
func (l *Loader) Load(r io.Reader) error {
	return l.load(r, "reader")
}

func (l *Loader) load(r io.Reader, source string) error {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrapf(err, "parsing %s", source)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.Errorf("%s: top level must be a mapping", source)
	}

	labels := make(map[string]models.Entity)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		m := entryKeyRe.FindStringSubmatch(key.Value)
		if m == nil {
			return errors.Errorf("%s:%d: entry key %q is not of the form Type(label)", source, key.Line, key.Value)
		}
		kind, label := m[1], m[2]
		if _, dup := labels[label]; dup {
			return errors.Errorf("%s:%d: label %q used twice", source, key.Line, label)
		}

		entity, err := build(kind, value, labels)
		if err != nil {
			return errors.Wrapf(err, "%s:%d: %s(%s)", source, key.Line, kind, label)
		}
		if err := l.store.Save(entity); err != nil {
			return errors.Wrapf(err, "%s:%d: saving %s(%s)", source, key.Line, kind, label)
		}
		labels[label] = entity
	}

	log.Printf("Loaded %d fixtures from %s", len(labels), source)
	return nil
}

type userEntry struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Fullname string `yaml:"fullname"`
	IsAdmin  bool   `yaml:"isAdmin"`
}

type postEntry struct {
	Title    string    `yaml:"title"`
	Content  string    `yaml:"content"`
	PostedAt timestamp `yaml:"postedAt"`
	Author   string    `yaml:"author"`
}

type commentEntry struct {
	Author   string    `yaml:"author"`
	Content  string    `yaml:"content"`
	PostedAt timestamp `yaml:"postedAt"`
	Post     string    `yaml:"post"`
}

func build(kind string, value *yaml.Node, labels map[string]models.Entity) (models.Entity, error) {
	switch models.Kind(strings.ToLower(kind)) {
	case models.KindUser:
		var e userEntry
		if err := value.Decode(&e); err != nil {
			return nil, err
		}
		user, err := models.NewUser(e.Email, e.Password, e.Fullname)
		if err != nil {
			return nil, err
		}
		user.IsAdmin = e.IsAdmin
		return user, nil

	case models.KindPost:
		var e postEntry
		if err := value.Decode(&e); err != nil {
			return nil, err
		}
		author, ok := labels[e.Author].(*models.User)
		if !ok {
			return nil, errors.Errorf("author %q is not a User defined earlier", e.Author)
		}
		post := models.NewPost(author, e.Title, strings.TrimSpace(e.Content))
		post.PostedAt = time.Time(e.PostedAt)
		return post, nil

	case models.KindComment:
		var e commentEntry
		if err := value.Decode(&e); err != nil {
			return nil, err
		}
		post, ok := labels[e.Post].(*models.Post)
		if !ok {
			return nil, errors.Errorf("post %q is not a Post defined earlier", e.Post)
		}
		comment := models.NewComment(post, e.Author, strings.TrimSpace(e.Content))
		comment.PostedAt = time.Time(e.PostedAt)
		return comment, nil
	}
	return nil, errors.Errorf("unknown fixture type %q", kind)
}

// timestamp accepts plain dates as well as RFC 3339 times.
type timestamp time.Time

var timestampLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

func (t *timestamp) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed.UTC())
			return nil
		}
	}
	return errors.Errorf("line %d: cannot parse %q as a date", value.Line, s)
}
