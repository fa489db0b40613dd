// Package query parses the finder expressions accepted by the repositories:
// named lookups ("byEmail"), property paths ("post.author.email") and
// ordering clauses ("order by postedAt desc").
package query

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidExpression is returned when an expression cannot be parsed.
var ErrInvalidExpression = errors.New("invalid query expression")

// Form tags the variant of a parsed Expression.
type Form int

const (
	// EqualityByField is a named lookup such as byEmail or byAuthorAndTitle.
	EqualityByField Form = iota + 1
	// EqualityByPath compares the leaf of a dotted reference path.
	EqualityByPath
	// OrderBy selects every entity of a kind, sorted.
	OrderBy
)

func (f Form) String() string {
	switch f {
	case EqualityByField:
		return "EqualityByField"
	case EqualityByPath:
		return "EqualityByPath"
	case OrderBy:
		return "OrderBy"
	default:
		return "Unknown"
	}
}

// Condition is one equality test. Path holds a single field for named
// lookups and one segment per hop for property paths.
type Condition struct {
	Path []string
}

// Field returns the dotted form of the condition path.
func (c Condition) Field() string {
	return strings.Join(c.Path, ".")
}

// Order is one sort key of an ordering clause.
type Order struct {
	Field string
	Desc  bool
}

// Expression is a parsed finder expression. Conditions are matched against
// positional arguments in order; Orders may accompany any form.
type Expression struct {
	Form       Form
	Conditions []Condition
	Orders     []Order
	Source     string
}

// Arity is the number of positional arguments the expression consumes.
func (e Expression) Arity() int {
	return len(e.Conditions)
}

var (
	identRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	namedRe      = regexp.MustCompile(`^by[A-Z][A-Za-z0-9_]*$`)
	orderByRe    = regexp.MustCompile(`(?i)(^|\s)order\s+by\s+`)
	andWordRe    = regexp.MustCompile(`(?i)\s+and\s+`)
	andCamelRe   = regexp.MustCompile(`And([A-Z])`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Parse turns expr into an Expression.
func Parse(expr string) (Expression, error) {
	source := strings.TrimSpace(expr)
	if source == "" {
		return Expression{}, errors.Wrap(ErrInvalidExpression, "empty expression")
	}

	filter, ordering := source, ""
	if loc := orderByRe.FindStringSubmatchIndex(source); loc != nil {
		filter = strings.TrimSpace(source[:loc[0]])
		ordering = strings.TrimSpace(source[loc[1]:])
		if ordering == "" {
			return Expression{}, errors.Wrapf(ErrInvalidExpression, "%q: missing ordering field", source)
		}
	}

	e := Expression{Source: source}

	if ordering != "" {
		orders, err := parseOrders(ordering)
		if err != nil {
			return Expression{}, errors.Wrapf(err, "%q", source)
		}
		e.Orders = orders
	}

	switch {
	case filter == "":
		e.Form = OrderBy
	case namedRe.MatchString(filter):
		e.Form = EqualityByField
		e.Conditions = parseNamed(filter)
	default:
		conditions, err := parsePaths(filter)
		if err != nil {
			return Expression{}, errors.Wrapf(err, "%q", source)
		}
		e.Form = EqualityByPath
		e.Conditions = conditions
	}

	return e, nil
}

func parseNamed(filter string) []Condition {
	body := andCamelRe.ReplaceAllString(strings.TrimPrefix(filter, "by"), "\x00$1")
	var conditions []Condition
	for _, name := range strings.Split(body, "\x00") {
		conditions = append(conditions, Condition{Path: []string{lowerFirst(name)}})
	}
	return conditions
}

func parsePaths(filter string) ([]Condition, error) {
	var conditions []Condition
	for _, part := range andWordRe.Split(filter, -1) {
		segments := strings.Split(strings.TrimSpace(part), ".")
		for _, segment := range segments {
			if !identRe.MatchString(segment) {
				return nil, errors.Wrapf(ErrInvalidExpression, "bad path segment %q", segment)
			}
		}
		conditions = append(conditions, Condition{Path: segments})
	}
	return conditions, nil
}

func parseOrders(clause string) ([]Order, error) {
	var orders []Order
	for _, item := range strings.Split(clause, ",") {
		words := whitespaceRe.Split(strings.TrimSpace(item), -1)
		if len(words) == 0 || len(words) > 2 || !identRe.MatchString(words[0]) {
			return nil, errors.Wrapf(ErrInvalidExpression, "bad ordering term %q", item)
		}
		o := Order{Field: words[0]}
		if len(words) == 2 {
			switch strings.ToLower(words[1]) {
			case "asc":
			case "desc":
				o.Desc = true
			default:
				return nil, errors.Wrapf(ErrInvalidExpression, "bad sort direction %q", words[1])
			}
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
