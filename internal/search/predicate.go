package search

import (
	"strings"
)

// Column is a fixed, code-defined column reference. User input never becomes a Column.
type Column string

const (
	ColActive      Column = "l.is_active"
	ColCity        Column = "l.city"
	ColRent        Column = "l.rent"
	ColGender      Column = "l.gender"
	ColFurnished   Column = "l.furnished"
	ColTitle       Column = "l.title"
	ColDescription Column = "l.description"
	ColAddress     Column = "l.address"
)

type RangeOp string

const (
	AtLeast RangeOp = ">="
	AtMost  RangeOp = "<="
)

// Predicate is one boolean condition of the search WHERE clause.
type Predicate interface {
	render(sb *strings.Builder, args []interface{}) []interface{}
}

type Equals struct {
	Column Column
	Value  interface{}
}

type Range struct {
	Column Column
	Op     RangeOp
	Value  float64
}

// Substring is a case-insensitive containment match.
type Substring struct {
	Column Column
	Value  string
}

// AnyOf is an OR-group of predicates.
type AnyOf struct {
	Terms []Predicate
}

func (p Equals) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString(string(p.Column))
	sb.WriteString(" = ?")
	return append(args, p.Value)
}

func (p Range) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString(string(p.Column))
	sb.WriteString(" ")
	sb.WriteString(string(p.Op))
	sb.WriteString(" ?")
	return append(args, p.Value)
}

func (p Substring) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString("LOWER(")
	sb.WriteString(string(p.Column))
	sb.WriteString(`) LIKE ? ESCAPE '\'`)
	return append(args, LikePattern(p.Value))
}

func (p AnyOf) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString("(")
	for i, term := range p.Terms {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		args = term.render(sb, args)
	}
	sb.WriteString(")")
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern lower-cases v, escapes LIKE wildcards and wraps it for containment.
func LikePattern(v string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
}

// Build translates criteria into predicates in a fixed order. The active flag is always first.
func Build(c SearchCriteria) []Predicate {
	preds := []Predicate{Equals{Column: ColActive, Value: true}}

	if c.City != "" {
		preds = append(preds, Substring{Column: ColCity, Value: c.City})
	}
	if c.MinRent != nil {
		preds = append(preds, Range{Column: ColRent, Op: AtLeast, Value: *c.MinRent})
	}
	if c.MaxRent != nil {
		preds = append(preds, Range{Column: ColRent, Op: AtMost, Value: *c.MaxRent})
	}
	if c.Gender != "" {
		preds = append(preds, AnyOf{Terms: []Predicate{
			Equals{Column: ColGender, Value: string(c.Gender)},
			Equals{Column: ColGender, Value: "any"},
		}})
	}
	if c.Furnished != nil {
		preds = append(preds, Equals{Column: ColFurnished, Value: *c.Furnished})
	}
	if c.Search != "" {
		preds = append(preds, AnyOf{Terms: []Predicate{
			Substring{Column: ColTitle, Value: c.Search},
			Substring{Column: ColDescription, Value: c.Search},
			Substring{Column: ColAddress, Value: c.Search},
		}})
	}

	return preds
}

// Filter is a compiled predicate set shared by the count and page queries.
type Filter struct {
	Predicates []Predicate
	Where      string
	Args       []interface{}
}

func Compile(preds []Predicate) Filter {
	var sb strings.Builder
	args := make([]interface{}, 0, len(preds))

	for i, p := range preds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		args = p.render(&sb, args)
	}

	return Filter{Predicates: preds, Where: sb.String(), Args: args}
}
